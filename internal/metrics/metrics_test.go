package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEngineMetrics(t *testing.T) {
	m := NewEngineMetrics(prometheus.NewRegistry())

	m.Observe("ApproveAndAssign", "ok", 20*time.Millisecond)
	m.Observe("ApproveAndAssign", "PRECONDITION", time.Millisecond)
	m.Transition("unit", "OCCUPIED")
	m.Conflict("ApproveAndAssign", "UNIT_NOT_VACANT")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("ApproveAndAssign", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("ApproveAndAssign", "PRECONDITION")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("unit", "OCCUPIED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("ApproveAndAssign", "UNIT_NOT_VACANT")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestNewEngineMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewEngineMetrics(reg)
	assert.Panics(t, func() { NewEngineMetrics(reg) })
}
