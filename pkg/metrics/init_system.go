package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	r.BuildInfo = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wayfinder_build_info",
			Help: "Always 1; labels name the server version and the graph storage backend",
		},
		[]string{"version", "storage"},
	)

	r.UptimeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_uptime_seconds",
			Help: "Seconds since the wayfinder server opened its graph store",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_goroutines",
			Help: "Goroutines, including in-flight route queries and change feed forwarders",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_memory_alloc_bytes",
			Help: "Heap bytes in use; the navigation graph is held entirely in memory",
		},
	)
}
