// Package metrics provides centralized Prometheus metrics for the
// dependency collector, following the namespace/subsystem/name taxonomy:
//
//	dep_collector_<subsystem>_<metric_name>_<unit>
//
// Example:
//
//	registry := metrics.DefaultRegistry()
//	registry.Collector().NodesVisitedTotal.WithLabelValues("resolved").Inc()
//	registry.History().RecordDurationSeconds.WithLabelValues("postgres").Observe(0.012)
package metrics

import "sync"

// MetricsRegistry is the central registry for all Prometheus metrics,
// organized by category and lazily initialized on first access.
type MetricsRegistry struct {
	namespace string

	collector     *CollectorMetrics
	history       *HistoryMetrics
	collectorOnce sync.Once
	historyOnce   sync.Once
}

var (
	defaultRegistry     *MetricsRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global singleton MetricsRegistry, initialized
// once on first call.
func DefaultRegistry() *MetricsRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewMetricsRegistry("dep_collector")
	})
	return defaultRegistry
}

// NewMetricsRegistry creates a registry with the given namespace. Most
// callers should use DefaultRegistry instead.
func NewMetricsRegistry(namespace string) *MetricsRegistry {
	if namespace == "" {
		namespace = "dep_collector"
	}
	return &MetricsRegistry{namespace: namespace}
}

// Collector returns the metrics for the breadth-first collection loop
// itself: nodes visited, cycles, exceptions, skipper decisions.
func (r *MetricsRegistry) Collector() *CollectorMetrics {
	r.collectorOnce.Do(func() {
		r.collector = NewCollectorMetrics(r.namespace)
	})
	return r.collector
}

// History returns the metrics for the optional resolution-history
// recorder (internal/history).
func (r *MetricsRegistry) History() *HistoryMetrics {
	r.historyOnce.Do(func() {
		r.history = NewHistoryMetrics(r.namespace)
	})
	return r.history
}

// Namespace returns the configured Prometheus namespace.
func (r *MetricsRegistry) Namespace() string {
	return r.namespace
}
