package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPathMetrics() {
	r.PathQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_path_queries_total",
			Help: "Route queries by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	r.PathQueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfinder_path_query_duration_seconds",
			Help:    "Route query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"kind"},
	)

	r.PathCost = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfinder_path_cost",
			Help:    "Total cost of returned routes",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		},
	)

	r.PathLengthNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfinder_path_length_nodes",
			Help:    "Number of nodes in returned routes",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
}
