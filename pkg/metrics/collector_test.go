package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCollectorMetrics_AllSeriesAreRegistered(t *testing.T) {
	m := NewCollectorMetrics("resolvetest_collector_metrics")

	assert.NotNil(t, m.NodesVisitedTotal)
	assert.NotNil(t, m.CyclesDetectedTotal)
	assert.NotNil(t, m.ExceptionsTotal)
	assert.NotNil(t, m.SkipperDecisionsTotal)
	assert.NotNil(t, m.CollectionDurationSecs)
	assert.NotNil(t, m.PoolInternHitsTotal)
	assert.NotNil(t, m.PoolMemoHitsTotal)
	assert.NotNil(t, m.PoolMemoMissesTotal)
}

func TestNewCollectorMetrics_CountersAreIncrementable(t *testing.T) {
	m := NewCollectorMetrics("resolvetest_collector_metrics_inc")

	m.NodesVisitedTotal.WithLabelValues("resolved").Inc()
	m.ExceptionsTotal.WithLabelValues("descriptor_read").Inc()
	m.CyclesDetectedTotal.Add(2)
	m.CollectionDurationSecs.Observe(0.5)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.NodesVisitedTotal.WithLabelValues("resolved")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CyclesDetectedTotal))
}
