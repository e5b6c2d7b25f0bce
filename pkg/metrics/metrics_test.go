package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.HTTPRequestsTotal == nil || r.MutationsTotal == nil || r.PathQueriesTotal == nil ||
		r.ChangeEventsTotal == nil || r.UptimeSeconds == nil || r.registry == nil {
		t.Fatal("Registry not fully initialized")
	}

	// Registries are independent.
	r2 := NewRegistry()
	r.RecordChangeEvent("node.created")
	if counterValue(t, r2.ChangeEventsTotal.WithLabelValues("node.created")) != 0 {
		t.Error("Registries share state")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/nodes", "200", 10*time.Millisecond, 512)
	r.RecordHTTPRequest("GET", "/nodes", "200", 20*time.Millisecond, 512)
	r.RecordHTTPRequest("GET", "/nodes/{id}", "404", 5*time.Millisecond, 64)

	if v := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("GET", "/nodes", "200")); v != 2 {
		t.Errorf("Counter value = %v, want 2", v)
	}
	if v := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("GET", "/nodes/{id}", "404")); v != 1 {
		t.Errorf("Counter value = %v, want 1", v)
	}
}

func TestRecordMutation(t *testing.T) {
	r := NewRegistry()
	r.RecordMutation("create_edge", "success", time.Millisecond)
	r.RecordMutation("create_edge", "conflict", time.Millisecond)
	r.RecordMutation("create_edge", "conflict", time.Millisecond)

	if v := counterValue(t, r.MutationsTotal.WithLabelValues("create_edge", "conflict")); v != 2 {
		t.Errorf("conflict count = %v, want 2", v)
	}

	var m dto.Metric
	if err := r.MutationDuration.WithLabelValues("create_edge").(prometheus.Histogram).Write(&m); err != nil {
		t.Fatal(err)
	}
	if m.Histogram.GetSampleCount() != 3 {
		t.Errorf("duration samples = %d, want 3", m.Histogram.GetSampleCount())
	}
}

func TestSetGraphSize(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(120, 180, 7)
	if gaugeValue(t, r.GraphNodesTotal) != 120 || gaugeValue(t, r.GraphEdgesTotal) != 180 || gaugeValue(t, r.GraphVersion) != 7 {
		t.Error("Graph gauges not set")
	}
}

func TestRecordPathQuery(t *testing.T) {
	r := NewRegistry()
	r.RecordPathQuery("path", "success", time.Millisecond, 42.5, 6)
	r.RecordPathQuery("path", "unreachable", time.Millisecond, 0, 0)

	if v := counterValue(t, r.PathQueriesTotal.WithLabelValues("path", "unreachable")); v != 1 {
		t.Errorf("unreachable count = %v, want 1", v)
	}
	var m dto.Metric
	if err := r.PathCost.Write(&m); err != nil {
		t.Fatal(err)
	}
	if m.Histogram.GetSampleCount() != 1 || m.Histogram.GetSampleSum() != 42.5 {
		t.Errorf("Only successful queries should observe cost, got %d samples sum %v",
			m.Histogram.GetSampleCount(), m.Histogram.GetSampleSum())
	}
}

func TestRecordCheckpoint(t *testing.T) {
	r := NewRegistry()
	r.RecordCheckpoint(nil)
	r.RecordCheckpoint(errors.New("disk full"))
	if counterValue(t, r.CheckpointsTotal.WithLabelValues("success")) != 1 ||
		counterValue(t, r.CheckpointsTotal.WithLabelValues("error")) != 1 {
		t.Error("Checkpoint outcomes not counted")
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics(time.Now().Add(-time.Minute))
	if gaugeValue(t, r.UptimeSeconds) < 60 {
		t.Error("Uptime not set")
	}
	if gaugeValue(t, r.GoRoutines) < 1 || gaugeValue(t, r.MemoryAllocBytes) <= 0 {
		t.Error("Runtime gauges not set")
	}
}

func TestSetBuildInfo(t *testing.T) {
	r := NewRegistry()
	r.SetBuildInfo("dev", "memory")
	r.SetBuildInfo("1.2.0", "wal")

	if got := gaugeValue(t, r.BuildInfo.WithLabelValues("1.2.0", "wal")); got != 1 {
		t.Errorf("Expected build info 1, got %v", got)
	}
	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == "wayfinder_build_info" && len(mf.GetMetric()) != 1 {
			t.Errorf("Expected one build info series, got %d", len(mf.GetMetric()))
		}
	}
}

func TestMetricNamesArePrefixed(t *testing.T) {
	r := NewRegistry()
	r.RecordChangeEvent("edge.deleted")
	r.RecordMutation("delete_edge", "success", time.Millisecond)

	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("No metric families gathered")
	}
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "wayfinder_") {
			t.Errorf("Metric %s lacks the wayfinder_ prefix", f.GetName())
		}
	}
}
