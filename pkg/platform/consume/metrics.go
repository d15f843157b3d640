package consume

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the consumption pipeline.
type Metrics struct {
	Retries         *prometheus.CounterVec
	TransientFaults *prometheus.CounterVec
	PermanentFaults *prometheus.CounterVec
}

// NewMetrics creates and registers all consumption metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_consume_retries_total",
			Help: "In-process handler retries after transient faults.",
		}, []string{"topic"}),
		TransientFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_consume_transient_faults_total",
			Help: "Handler failures classified as transient.",
		}, []string{"topic"}),
		PermanentFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_consume_permanent_faults_total",
			Help: "Handler failures propagated without retry.",
		}, []string{"topic"}),
	}
}
