package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HistoryMetrics tracks the optional resolution-history recorder: how long
// writes take and how often reads are served by the Redis cache in front
// of Postgres rather than falling through to it.
type HistoryMetrics struct {
	namespace string

	RecordDurationSeconds *prometheus.HistogramVec
	RecordErrorsTotal     *prometheus.CounterVec
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
}

// NewHistoryMetrics constructs the history metric set under namespace.
func NewHistoryMetrics(namespace string) *HistoryMetrics {
	return &HistoryMetrics{
		namespace: namespace,

		RecordDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "record_duration_seconds",
				Help:      "Duration of resolution-history writes, by backend.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend"}, // backend: postgres|redis
		),

		RecordErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "record_errors_total",
				Help:      "Resolution-history write failures, by backend.",
			},
			[]string{"backend"},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "cache_hits_total",
				Help:      "Resolution-history reads served from the Redis cache.",
			},
		),

		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "history",
				Name:      "cache_misses_total",
				Help:      "Resolution-history reads that fell through to Postgres.",
			},
		),
	}
}
