// Package metrics holds the prometheus collectors of the POS backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SalesCreated counts committed sales by payment method.
var SalesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pos_sales_created_total",
	Help: "Sales committed, by payment method.",
}, []string{"payment_method"})

// SalesFailed counts aborted sale transactions by reason.
var SalesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pos_sales_failed_total",
	Help: "Sale transactions rolled back, by reason.",
}, []string{"reason"})

// SaleReversals counts reversal attempts by outcome.
var SaleReversals = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pos_sale_reversals_total",
	Help: "Sale reversal attempts, by outcome.",
}, []string{"outcome"})

// Notifications counts post-commit notification deliveries by outcome.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pos_notifications_total",
	Help: "Sale notifications, by delivery outcome.",
}, []string{"outcome"})

// SaleTxDuration observes how long a sale unit of work takes, commit included.
var SaleTxDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "pos_sale_tx_duration_seconds",
	Help:    "Duration of the sale creation transaction.",
	Buckets: prometheus.DefBuckets,
})
