package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewHistoryMetrics_AllSeriesAreRegistered(t *testing.T) {
	m := NewHistoryMetrics("resolvetest_history_metrics")

	assert.NotNil(t, m.RecordDurationSeconds)
	assert.NotNil(t, m.RecordErrorsTotal)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.CacheMissesTotal)
}

func TestNewHistoryMetrics_CacheCountersAreIndependent(t *testing.T) {
	m := NewHistoryMetrics("resolvetest_history_metrics_inc")

	m.CacheHitsTotal.Inc()
	m.CacheHitsTotal.Inc()
	m.CacheMissesTotal.Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMissesTotal))
}
