package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CollectorMetrics tracks the health and shape of each collection run:
// how many nodes were visited, how many cycles/exceptions were recorded,
// and how the resolution skipper and data pool performed.
type CollectorMetrics struct {
	namespace string

	NodesVisitedTotal      *prometheus.CounterVec
	CyclesDetectedTotal    prometheus.Counter
	ExceptionsTotal        *prometheus.CounterVec
	SkipperDecisionsTotal  *prometheus.CounterVec
	CollectionDurationSecs prometheus.Histogram

	PoolInternHitsTotal   *prometheus.CounterVec
	PoolMemoHitsTotal     *prometheus.CounterVec
	PoolMemoMissesTotal   *prometheus.CounterVec
}

// NewCollectorMetrics constructs the collector metric set under namespace.
func NewCollectorMetrics(namespace string) *CollectorMetrics {
	return &CollectorMetrics{
		namespace: namespace,

		NodesVisitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bf",
				Name:      "nodes_visited_total",
				Help:      "Total dependency nodes appended to the result graph.",
			},
			[]string{"kind"}, // kind: resolved|stub|cycle_terminus
		),

		CyclesDetectedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bf",
				Name:      "cycles_detected_total",
				Help:      "Total dependency cycles detected during collection.",
			},
		),

		ExceptionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bf",
				Name:      "exceptions_total",
				Help:      "Total exceptions recorded during collection, by kind.",
			},
			[]string{"kind"}, // kind: descriptor_read|version_range|graph_transform
		),

		SkipperDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "skip",
				Name:      "decisions_total",
				Help:      "Resolution skipper decisions, by outcome.",
			},
			[]string{"decision"}, // decision: expand|duplicate|version_conflict|force_resolution
		),

		CollectionDurationSecs: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bf",
				Name:      "collection_duration_seconds",
				Help:      "Wall-clock duration of one Collect call.",
				Buckets:   prometheus.DefBuckets,
			},
		),

		PoolInternHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "intern_hits_total",
				Help:      "Interning lookups that returned an existing canonical value.",
			},
			[]string{"kind"}, // kind: artifact|dependency
		),

		PoolMemoHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "memo_hits_total",
				Help:      "Memo cache lookups that found a cached result.",
			},
			[]string{"cache"}, // cache: version_range|descriptor|children
		),

		PoolMemoMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "memo_misses_total",
				Help:      "Memo cache lookups that required a fresh computation.",
			},
			[]string{"cache"},
		),
	}
}
