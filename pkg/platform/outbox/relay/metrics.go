package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the outbox relay.
type Metrics struct {
	Published        *prometheus.CounterVec
	DeliveryFailures *prometheus.CounterVec
	BatchPending     prometheus.Gauge
}

// NewMetrics creates and registers all relay metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_outbox_published_total",
			Help: "Outbox messages delivered to the bus and marked processed.",
		}, []string{"type"}),
		DeliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_outbox_delivery_failures_total",
			Help: "Failed delivery attempts, by event type.",
		}, []string{"type"}),
		BatchPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ordercore_outbox_batch_pending",
			Help: "Pending messages seen by the most recent relay pass.",
		}),
	}
}
