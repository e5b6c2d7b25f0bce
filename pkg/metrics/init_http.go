package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route planning answers in milliseconds on hospital-sized graphs; plan
// imports and checkpoints land in the upper buckets.
var httpLatencyBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// A single route is a few hundred bytes; a full node listing of a campus
// reaches the megabyte range.
var httpSizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_http_requests_total",
			Help: "Requests served by the REST, GraphQL and health endpoints, by registered route pattern",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfinder_http_request_duration_seconds",
			Help:    "Time to answer a request, including route planning and graph commits",
			Buckets: httpLatencyBuckets,
		},
		[]string{"method", "route"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_http_requests_in_flight",
			Help: "Requests currently being answered",
		},
	)

	r.HTTPResponseSizeBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfinder_http_response_size_bytes",
			Help:    "Size of response bodies such as routes, node listings and GraphQL results",
			Buckets: httpSizeBuckets,
		},
		[]string{"method", "route"},
	)
}
