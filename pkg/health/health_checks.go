package health

import (
	"context"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// SimpleCheck always reports healthy. Useful as a liveness probe.
func SimpleCheck(name string) CheckFunc {
	return func() Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}

// GraphCheck reports the store's size and version. A closed store is unhealthy.
func GraphCheck(store *storage.Store) CheckFunc {
	return func() Check {
		st := store.Stats()
		check := Check{
			Name: "graph",
			Details: map[string]any{
				"nodes":   st.NodeCount,
				"edges":   st.EdgeCount,
				"version": st.Version,
			},
		}
		switch {
		case store.Closed():
			check.Status = StatusUnhealthy
			check.Message = "Store closed"
		case st.NodeCount == 0:
			check.Status = StatusDegraded
			check.Message = "Graph is empty"
		default:
			check.Status = StatusHealthy
			check.Message = "Graph loaded"
		}
		return check
	}
}

// ConnectivityCheck is degraded when the graph splits into more than one
// component, which usually means a hallway or elevator link is missing.
func ConnectivityCheck(store *storage.Store) CheckFunc {
	return func() Check {
		var res *algorithms.ComponentsResult
		_ = store.View(func(g storage.Reader) error {
			res = algorithms.ConnectedComponents(g)
			return nil
		})
		check := Check{
			Name:    "connectivity",
			Details: map[string]any{"components": len(res.Components)},
		}
		if res.Connected() {
			check.Status = StatusHealthy
			check.Message = "All nodes reachable"
			return check
		}
		sizes := make([]int, len(res.Components))
		for i, c := range res.Components {
			sizes[i] = c.Size
		}
		check.Details["component_sizes"] = sizes
		check.Status = StatusDegraded
		check.Message = "Graph has disconnected islands"
		return check
	}
}

// DatabaseCheck pings a database with a timeout.
func DatabaseCheck(ping func(context.Context) error, timeout time.Duration) CheckFunc {
	return func() Check {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		check := Check{Name: "database"}
		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}
		return check
	}
}

// MemoryCheck is degraded when the Go heap exceeds limit bytes. A zero limit
// only reports usage.
func MemoryCheck(limit uint64) CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Name: "memory",
			Details: map[string]any{
				"heap_alloc_bytes": m.HeapAlloc,
				"sys_bytes":        m.Sys,
				"goroutines":       runtime.NumGoroutine(),
			},
			Status:  StatusHealthy,
			Message: "Memory usage normal",
		}
		if limit > 0 && m.HeapAlloc > limit {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
