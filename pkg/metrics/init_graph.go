package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_graph_nodes",
			Help: "Number of nodes in the building graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_graph_edges",
			Help: "Number of edges in the building graph",
		},
	)

	r.GraphVersion = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_graph_version",
			Help: "Version of the last committed graph change",
		},
	)

	r.MutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_graph_mutations_total",
			Help: "Graph mutations by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	r.MutationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfinder_graph_mutation_duration_seconds",
			Help:    "Graph mutation duration in seconds, persistence included",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	r.CheckpointsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_storage_checkpoints_total",
			Help: "Snapshot checkpoints by outcome",
		},
		[]string{"status"},
	)

	r.WALBytesStoredTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_storage_wal_bytes_stored",
			Help: "Bytes written to the write-ahead log since startup",
		},
	)
}
