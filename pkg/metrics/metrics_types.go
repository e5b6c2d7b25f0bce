package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Graph Metrics
	GraphNodesTotal     prometheus.Gauge
	GraphEdgesTotal     prometheus.Gauge
	GraphVersion        prometheus.Gauge
	MutationsTotal      *prometheus.CounterVec
	MutationDuration    *prometheus.HistogramVec
	CheckpointsTotal    *prometheus.CounterVec
	WALBytesStoredTotal prometheus.Gauge

	// Path Planning Metrics
	PathQueriesTotal  *prometheus.CounterVec
	PathQueryDuration *prometheus.HistogramVec
	PathCost          prometheus.Histogram
	PathLengthNodes   prometheus.Histogram

	// Change Feed Metrics
	ChangeEventsTotal       *prometheus.CounterVec
	ChangeEventsDropped     prometheus.Counter
	ChangefeedSubscriptions prometheus.Gauge

	// System Metrics
	BuildInfo        *prometheus.GaugeVec
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric registered. Each registry
// owns its own Prometheus registry, so tests can create as many as they like.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initHTTPMetrics()
	r.initGraphMetrics()
	r.initPathMetrics()
	r.initChangefeedMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
