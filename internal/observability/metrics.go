package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	WebhooksTotal         *prometheus.CounterVec
	PurchasesTotal        *prometheus.CounterVec
	OrdersResolvedTotal   *prometheus.CounterVec
	ExpiryNoticesTotal    *prometheus.CounterVec
	PlatformFailuresTotal *prometheus.CounterVec
	DispatchQueueDepth    prometheus.Gauge
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		WebhooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membership_webhooks_total",
				Help: "Payment notifications received, by transaction status",
			},
			[]string{"transaction_status"},
		),
		PurchasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membership_purchases_total",
				Help: "Purchase commands that produced a payment link, by action",
			},
			[]string{"action"},
		),
		OrdersResolvedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membership_orders_resolved_total",
				Help: "Order resolutions, by outcome",
			},
			[]string{"outcome"},
		),
		ExpiryNoticesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membership_expiry_notices_total",
				Help: "Expiry reminders, by outcome",
			},
			[]string{"outcome"},
		),
		PlatformFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membership_platform_failures_total",
				Help: "Failed chat platform calls, by operation",
			},
			[]string{"operation"},
		),
		DispatchQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "membership_dispatch_queue_depth",
				Help: "Commands waiting in the dispatcher queue",
			},
		),
	}

	registry.MustRegister(
		m.WebhooksTotal,
		m.PurchasesTotal,
		m.OrdersResolvedTotal,
		m.ExpiryNoticesTotal,
		m.PlatformFailuresTotal,
		m.DispatchQueueDepth,
	)

	return m
}

// NewTestMetrics registers on a throwaway registry.
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// Handler exposes the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
