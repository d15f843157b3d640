package executor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ordercore/pkg/platform/faults"
)

// Metrics holds the Prometheus metrics for the execution scope.
type Metrics struct {
	Commits              *prometheus.CounterVec
	IdempotenceConflicts *prometheus.CounterVec
	ConcurrencyConflicts *prometheus.CounterVec
	Failures             *prometheus.CounterVec
	Replays              prometheus.Counter
}

// NewMetrics creates and registers all execution-scope metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_executor_commits_total",
			Help: "Successfully committed executions by action.",
		}, []string{"action"}),
		IdempotenceConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_executor_idempotence_conflicts_total",
			Help: "Executions rejected because the request id was already accepted.",
		}, []string{"action"}),
		ConcurrencyConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_executor_concurrency_conflicts_total",
			Help: "Executions aborted on an optimistic-lock mismatch.",
		}, []string{"action"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ordercore_executor_failures_total",
			Help: "Executions that failed for any other reason.",
		}, []string{"action"}),
		Replays: factory.NewCounter(prometheus.CounterOpts{
			Name: "ordercore_executor_replays_total",
			Help: "Whole-transaction replays after transient storage failures.",
		}),
	}
}

func (m *Metrics) observeOutcome(action string, err error) {
	switch {
	case err == nil:
		m.Commits.WithLabelValues(action).Inc()
	case errors.Is(err, faults.ErrIdempotenceConflict):
		m.IdempotenceConflicts.WithLabelValues(action).Inc()
	case errors.Is(err, faults.ErrConcurrencyConflict):
		m.ConcurrencyConflicts.WithLabelValues(action).Inc()
	default:
		m.Failures.WithLabelValues(action).Inc()
	}
}
