package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// TestGetPath_Scenario covers the A-B-C walk, the isolated node and a ghost ID.
func TestGetPath_Scenario(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	rr := ts.do(t, http.MethodGet, "/path?source=A&destination=C", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	route := decode[pathfinder.Route](t, rr)
	if !slices.Equal(route.IDs(), []storage.NodeID{"A", "B", "C"}) {
		t.Errorf("Expected path [A B C], got %v", route.IDs())
	}
	if route.Cost != 20 || route.GraphVersion != 1 {
		t.Errorf("Expected cost 20 at version 1, got %f at %d", route.Cost, route.GraphVersion)
	}
	if len(route.Legs) != 1 || len(route.FloorChanges) != 0 {
		t.Errorf("Expected a single leg, got %+v", route.Legs)
	}

	rr = ts.do(t, http.MethodGet, "/path?source=A&destination=A", nil)
	if trivial := decode[pathfinder.Route](t, rr); len(trivial.Nodes) != 1 || trivial.Cost != 0 {
		t.Errorf("Expected trivial path, got %+v", trivial)
	}

	expectError(t, ts.do(t, http.MethodGet, "/path?source=A&destination=D", nil), http.StatusUnprocessableEntity, "UNREACHABLE")
	expectError(t, ts.do(t, http.MethodGet, "/path?source=A&destination=GHOST", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestGetPath_BadRequests(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	for _, target := range []string{
		"/path",
		"/path?source=A",
		"/path?source=A&destination=C&from=A",
		"/path?source=A&destination=C&avoid=GARAGE",
	} {
		t.Run(target, func(t *testing.T) {
			expectError(t, ts.do(t, http.MethodGet, target, nil), http.StatusBadRequest, "INVALID_ARGUMENT")
		})
	}
}

func TestGetPath_PostByName(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	rr := ts.do(t, http.MethodPost, "/path", PathRequest{From: "a", To: "Restroom"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	route := decode[pathfinder.Route](t, rr)
	if !slices.Equal(route.IDs(), []storage.NodeID{"A", "B", "C", "R"}) {
		t.Errorf("Expected path to the restroom, got %v", route.IDs())
	}
}

func TestGetPath_TransitOnly(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	// R is a point of interest, so it may end a route but not be passed through.
	rr := ts.do(t, http.MethodPost, "/edges", map[string]any{"node_a": "R", "node_b": "D", "weight": 1})
	if rr.Code != http.StatusCreated {
		t.Fatalf("edge create failed: %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/path?source=A&destination=D", nil); rr.Code != http.StatusOK {
		t.Fatalf("Expected unrestricted route through R, got %d", rr.Code)
	}
	expectError(t, ts.do(t, http.MethodGet, "/path?source=A&destination=D&transit_only=true", nil),
		http.StatusUnprocessableEntity, "UNREACHABLE")
	expectError(t, ts.do(t, http.MethodGet, "/path?source=A&destination=D&avoid=rest,stai", nil),
		http.StatusUnprocessableEntity, "UNREACHABLE")
	expectError(t, ts.do(t, http.MethodGet, "/path?source=A&destination=D&transit_only=yes", nil),
		http.StatusBadRequest, "INVALID_ARGUMENT")
}

func TestNearest(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	rr := ts.do(t, http.MethodGet, "/path/nearest?source=A&type=REST", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	route := decode[pathfinder.Route](t, rr)
	if last := route.Nodes[len(route.Nodes)-1]; last.ID != "R" {
		t.Errorf("Expected to end at R, got %s", last.ID)
	}

	rr = ts.do(t, http.MethodGet, "/path/nearest?from=B&type=rest", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected lookup by name to work, got %d", rr.Code)
	}

	expectError(t, ts.do(t, http.MethodGet, "/path/nearest?source=A&type=NOPE", nil), http.StatusBadRequest, "INVALID_ARGUMENT")
	expectError(t, ts.do(t, http.MethodGet, "/path/nearest?type=REST", nil), http.StatusBadRequest, "INVALID_ARGUMENT")
	expectError(t, ts.do(t, http.MethodGet, "/path/nearest?source=A&type=REST&transit_only=maybe", nil), http.StatusBadRequest, "INVALID_ARGUMENT")
	expectError(t, ts.do(t, http.MethodGet, "/path/nearest?source=D&type=REST", nil), http.StatusUnprocessableEntity, "UNREACHABLE")
	expectError(t, ts.do(t, http.MethodGet, "/path/nearest?source=A&type=ELEV", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestComponents(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)

	empty := decode[ComponentsResponse](t, ts.do(t, http.MethodGet, "/components", nil))
	if !empty.Connected || empty.Count != 0 || empty.Components == nil {
		t.Errorf("Expected an empty connected graph, got %+v", empty)
	}

	ts.seedABC(t)
	resp := decode[ComponentsResponse](t, ts.do(t, http.MethodGet, "/components", nil))
	if resp.Connected || resp.Count != 2 {
		t.Fatalf("Expected 2 components, got %+v", resp)
	}
	if resp.Components[0].Size != 4 || !slices.Equal(resp.Components[1].Nodes, []storage.NodeID{"D"}) {
		t.Errorf("Unexpected components %+v %+v", resp.Components[0], resp.Components[1])
	}
}

// TestConcurrentPathQueries checks that parallel identical queries agree
// while the graph is being edited elsewhere.
func TestConcurrentPathQueries(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := httptest.NewRecorder()
			ts.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/path?source=A&destination=C", nil))
			var route pathfinder.Route
			if err := json.Unmarshal(rr.Body.Bytes(), &route); err != nil || rr.Code != http.StatusOK {
				errs <- rr.Body.String()
				return
			}
			if route.Cost != 20 {
				errs <- "unexpected cost"
			}
		}()
	}
	body, _ := json.Marshal(labNode())
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/nodes", bytes.NewReader(body))
			ts.handler.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
