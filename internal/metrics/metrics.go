package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds the Prometheus metrics of the workflow engine.
type EngineMetrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TransitionsTotal  *prometheus.CounterVec
	ConflictsTotal    *prometheus.CounterVec
	ReadRetriesTotal  *prometheus.CounterVec
	NotifyFailures    prometheus.Counter
}

// NewEngineMetrics registers the engine metrics with reg. Tests pass a fresh
// prometheus.NewRegistry(); the server passes prometheus.DefaultRegisterer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estatehub",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of engine operations by outcome.",
		}, []string{"operation", "outcome"}), // outcome: ok or an error kind
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "estatehub",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Latency of engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estatehub",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Committed status transitions by entity and target status.",
		}, []string{"entity", "to"}),
		ConflictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estatehub",
			Subsystem: "workflow",
			Name:      "conflicts_total",
			Help:      "Operations that lost an optimistic write race.",
		}, []string{"operation", "code"}),
		ReadRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estatehub",
			Subsystem: "engine",
			Name:      "read_retries_total",
			Help:      "Read operations retried after a transient failure.",
		}, []string{"operation"}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "estatehub",
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Best-effort notifications that could not be delivered.",
		}),
	}
}

func (m *EngineMetrics) Observe(operation, outcome string, elapsed time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *EngineMetrics) Transition(entity, to string) {
	m.TransitionsTotal.WithLabelValues(entity, to).Inc()
}

func (m *EngineMetrics) Conflict(operation, code string) {
	m.ConflictsTotal.WithLabelValues(operation, code).Inc()
}
