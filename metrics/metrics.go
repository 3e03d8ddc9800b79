// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReconcileTotal counts reconciliations by trigger (verify, webhook) and canonical outcome.
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_reconcile_total",
			Help: "Payment reconciliations by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	// OrdersFinalized counts PENDING -> PAID transitions. It must equal the number of paid orders.
	OrdersFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_finalized_total",
			Help: "Orders finalized (stock decremented, cart cleared)",
		},
	)

	CheckoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_total",
			Help: "Checkout initiations by result",
		},
		[]string{"result"},
	)

	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_gateway_requests_total",
			Help: "Payment gateway requests by operation and result",
		},
		[]string{"operation", "result"},
	)

	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_gateway_request_duration_seconds",
			Help:    "Payment gateway request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// CircuitBreakerState is 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
