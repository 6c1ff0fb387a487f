package api

import (
	"net/http"
	"time"

	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// InitRoutes registers the sales endpoints on the given Gin engine.
// With withMetrics the prometheus handler is mounted on /metrics.
func InitRoutes(e *gin.Engine, salesService *sales.Service, logger *zap.Logger, withMetrics bool) {
	e.Use(requestLogger(logger), gin.Recovery())

	salesHandler := NewSalesHandler(salesService, logger)

	e.POST("/sales", salesHandler.handleCreateSale(false))
	e.POST("/sales/visit", salesHandler.handleCreateSale(true))
	e.GET("/sales", salesHandler.handleListSales)
	e.GET("/sales/:id", salesHandler.handleGetSale)
	e.DELETE("/sales/:id", salesHandler.handleRemoveSale)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	if withMetrics {
		e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
