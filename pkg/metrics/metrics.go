package metrics

import (
	"runtime"
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration and response size.
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration, size int) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	r.HTTPResponseSizeBytes.WithLabelValues(method, route).Observe(float64(size))
}

// RecordMutation records one mutation attempt. status is "success" or an error kind.
func (r *Registry) RecordMutation(operation, status string, duration time.Duration) {
	r.MutationsTotal.WithLabelValues(operation, status).Inc()
	r.MutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetGraphSize updates the graph gauges after a commit or on startup.
func (r *Registry) SetGraphSize(nodes, edges int, version uint64) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
	r.GraphVersion.Set(float64(version))
}

// RecordPathQuery records a route query. Cost and length are only observed for
// successful queries.
func (r *Registry) RecordPathQuery(kind, outcome string, duration time.Duration, cost float64, nodes int) {
	r.PathQueriesTotal.WithLabelValues(kind, outcome).Inc()
	r.PathQueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if outcome == "success" {
		r.PathCost.Observe(cost)
		r.PathLengthNodes.Observe(float64(nodes))
	}
}

// RecordCheckpoint records a checkpoint attempt.
func (r *Registry) RecordCheckpoint(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.CheckpointsTotal.WithLabelValues(status).Inc()
}

// RecordChangeEvent counts a published change event.
func (r *Registry) RecordChangeEvent(eventType string) {
	r.ChangeEventsTotal.WithLabelValues(eventType).Inc()
}

// SetBuildInfo records which version and storage backend this process runs.
func (r *Registry) SetBuildInfo(version, storage string) {
	r.BuildInfo.Reset()
	r.BuildInfo.WithLabelValues(version, storage).Set(1)
}

// UpdateSystemMetrics samples runtime statistics.
func (r *Registry) UpdateSystemMetrics(startedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	r.UptimeSeconds.Set(time.Since(startedAt).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// IncHTTPRequestsInFlight marks the start of a request.
func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }

// DecHTTPRequestsInFlight marks the end of a request.
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }
