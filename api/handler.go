package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	metodoContado = "CONTADO"
	metodoCredito = "CREDITO"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

type productLine struct {
	ProductoID int64            `json:"productoId" binding:"required"`
	Cantidad   int              `json:"cantidad" binding:"required,gt=0"`
	Precio     *decimal.Decimal `json:"precio" binding:"required"`
}

type createSaleRequest struct {
	ClienteID         int64            `json:"clienteId" binding:"required"`
	VendedorID        int64            `json:"vendedorId" binding:"required"`
	EmpresaID         int64            `json:"empresaId" binding:"required"`
	MetodoPago        string           `json:"metodoPago" binding:"required,oneof=CONTADO CREDITO"`
	Monto             *decimal.Decimal `json:"monto" binding:"required"`
	MontoConDescuento *decimal.Decimal `json:"montoConDescuento" binding:"required"`
	Descuento         decimal.Decimal  `json:"descuento"`
	Productos         []productLine    `json:"productos" binding:"required,min=1,dive"`

	// Solo para CREDITO
	CreditoInicial decimal.Decimal `json:"creditoInicial"`
	Interes        decimal.Decimal `json:"interes"`
	NumeroCuotas   int             `json:"numeroCuotas"`
	Dpi            string          `json:"dpi"`
	Comentario     *string         `json:"comentario"`
	Testigos       json.RawMessage `json:"testigos"`

	RegistroVisitaID *int64 `json:"registroVisitaId"`
}

// toInput maps the wire request onto the service input. Credit fields are read only
// for CREDITO; the visit id only on the registration flow.
func (r createSaleRequest) toInput(withVisit bool) sales.CreateSaleInput {
	in := sales.CreateSaleInput{
		CustomerID:       r.ClienteID,
		SalespersonID:    r.VendedorID,
		BusinessUnitID:   r.EmpresaID,
		Amount:           *r.Monto,
		Discount:         r.Descuento,
		DiscountedAmount: *r.MontoConDescuento,
		Items:            make([]sales.LineItemInput, 0, len(r.Productos)),
	}
	for _, p := range r.Productos {
		in.Items = append(in.Items, sales.LineItemInput{ProductID: p.ProductoID, Quantity: p.Cantidad, UnitPrice: *p.Precio})
	}

	switch r.MetodoPago {
	case metodoCredito:
		in.Payment = sales.CreditPayment{
			InitialPayment:   r.CreditoInicial,
			InterestPercent:  r.Interes,
			Installments:     r.NumeroCuotas,
			IdentityDocument: r.Dpi,
			Comment:          r.Comentario,
			Witnesses:        r.Testigos,
		}
	default:
		in.Payment = sales.CashPayment{}
	}

	if withVisit {
		in.VisitID = r.RegistroVisitaID
	}
	return in
}

// handleCreateSale handles POST /sales and, with withVisit, POST /sales/visit.
func (h *salesHandler) handleCreateSale(withVisit bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req createSaleRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("failed to bind JSON request", zap.Error(err))
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
			return
		}

		sale, err := h.salesService.CreateSale(ctx.Request.Context(), req.toInput(withVisit))
		if err != nil {
			h.writeError(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, sale)
	}
}

type removeSaleRequest struct {
	UserID        int64  `json:"userId" binding:"required"`
	AdminPassword string `json:"adminPassword" binding:"required"`
	SucursalID    int64  `json:"sucursalId" binding:"required"`
}

// handleRemoveSale handles DELETE /sales/:id.
func (h *salesHandler) handleRemoveSale(ctx *gin.Context) {
	saleID, ok := h.idParam(ctx)
	if !ok {
		return
	}

	var req removeSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return
	}

	err := h.salesService.RemoveSale(ctx.Request.Context(), sales.RemoveSaleInput{
		SaleID:         saleID,
		UserID:         req.UserID,
		AdminPassword:  req.AdminPassword,
		BusinessUnitID: req.SucursalID,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	saleID, ok := h.idParam(ctx)
	if !ok {
		return
	}

	sale, err := h.salesService.GetSale(ctx.Request.Context(), saleID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

func (h *salesHandler) handleListSales(ctx *gin.Context) {
	var filter sales.SaleFilter
	for key, dst := range map[string]*int64{"vendedorId": &filter.SalespersonID, "clienteId": &filter.CustomerID} {
		raw := ctx.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
			return
		}
		*dst = v
	}
	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	results, err := h.salesService.ListSales(ctx.Request.Context(), filter)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results, "quantity": len(results)})
}

func (h *salesHandler) idParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale id"})
		return 0, false
	}
	return id, true
}

// writeError maps the sales error taxonomy onto HTTP statuses.
func (h *salesHandler) writeError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sales.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, sales.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, sales.ErrInvalidInstallments),
		errors.Is(err, sales.ErrInvalidCreditTerms),
		errors.Is(err, sales.ErrInvalidSale):
		status = http.StatusBadRequest
	case errors.Is(err, sales.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(status, gin.H{"error": sales.ErrTransactionFailure.Error()})
		return
	}
	ctx.JSON(status, gin.H{"error": err.Error()})
}
