package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

func labNode() map[string]any {
	return map[string]any{
		"short_name": "Pathology",
		"long_name":  "Pathology Laboratory",
		"type":       "LABS",
		"floor":      "2",
		"building":   "Main",
		"x":          120.5,
		"y":          40,
	}
}

// TestCreateAndGetNode tests POST /nodes followed by GET /nodes/{id}
func TestCreateAndGetNode(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)

	rr := ts.do(t, http.MethodPost, "/nodes", labNode())
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	created := decode[storage.Node](t, rr)
	if created.ID != "N000001" {
		t.Errorf("Expected first generated ID N000001, got %s", created.ID)
	}
	if rr.Header().Get("Location") != "/nodes/N000001" {
		t.Errorf("Expected Location header, got %q", rr.Header().Get("Location"))
	}

	rr = ts.do(t, http.MethodGet, "/nodes/"+string(created.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	got := decode[storage.Node](t, rr)
	if got.LongName != "Pathology Laboratory" || got.Type != storage.TypeLab || got.X != 120.5 {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}

func TestCreateNodeRejected(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{"unknown type", func(b map[string]any) { b["type"] = "GARAGE" }, http.StatusBadRequest},
		{"missing long name", func(b map[string]any) { delete(b, "long_name") }, http.StatusBadRequest},
		{"negative coordinate", func(b map[string]any) { b["x"] = -1 }, http.StatusBadRequest},
		{"client chosen id", func(b map[string]any) { b["id"] = "LAB1" }, http.StatusBadRequest},
		{"unknown field", func(b map[string]any) { b["colour"] = "blue" }, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := labNode()
			tt.mutate(body)
			expectError(t, ts.do(t, http.MethodPost, "/nodes", body), tt.status, "INVALID_ARGUMENT")
		})
	}

	if n := ts.store.NodeCount(); n != 0 {
		t.Errorf("Rejected requests must not create nodes, found %d", n)
	}
}

func TestCreateNodeMalformedBody(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	expectError(t, ts.do(t, http.MethodPost, "/nodes", "{not json"), http.StatusBadRequest, "INVALID_ARGUMENT")
	expectError(t, ts.do(t, http.MethodPost, "/nodes", ""), http.StatusBadRequest, "INVALID_ARGUMENT")
}

// TestListNodes tests the GET /nodes endpoint and its filters
func TestListNodes(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	resp := decode[NodeListResponse](t, ts.do(t, http.MethodGet, "/nodes", nil))
	if resp.Count != 5 || resp.GraphVersion != 1 {
		t.Fatalf("Expected 5 nodes at version 1, got %d at %d", resp.Count, resp.GraphVersion)
	}
	for i, want := range []storage.NodeID{"A", "B", "C", "D", "R"} {
		if resp.Nodes[i].ID != want {
			t.Errorf("Expected nodes in ID order, position %d is %s", i, resp.Nodes[i].ID)
		}
	}

	resp = decode[NodeListResponse](t, ts.do(t, http.MethodGet, "/nodes?type=rest&building=main", nil))
	if resp.Count != 1 || resp.Nodes[0].ID != "R" {
		t.Errorf("Expected only the restroom, got %+v", resp.Nodes)
	}

	resp = decode[NodeListResponse](t, ts.do(t, http.MethodGet, "/nodes?floor=9", nil))
	if resp.Count != 0 || resp.Nodes == nil {
		t.Errorf("Expected an empty list, got %+v", resp.Nodes)
	}

	expectError(t, ts.do(t, http.MethodGet, "/nodes?type=GARAGE", nil), http.StatusBadRequest, "INVALID_ARGUMENT")
}

func TestGetNodeNotFound(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	expectError(t, ts.do(t, http.MethodGet, "/nodes/N999999", nil), http.StatusNotFound, "NOT_FOUND")
	expectError(t, ts.do(t, http.MethodGet, "/nodes/bad%20id", nil), http.StatusBadRequest, "INVALID_ARGUMENT")
}

func TestUpdateNode(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.seedABC(t)

	rr := ts.do(t, http.MethodPut, "/nodes/A", map[string]any{"long_name": "Main Entrance Hall"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if got := decode[storage.Node](t, rr); got.LongName != "Main Entrance Hall" || got.ShortName != "A" {
		t.Errorf("Expected only long_name to change, got %+v", got)
	}

	expectError(t, ts.do(t, http.MethodPut, "/nodes/A", map[string]any{"id": "Z"}), http.StatusBadRequest, "INVALID_ARGUMENT")
	expectError(t, ts.do(t, http.MethodPut, "/nodes/ZZ", map[string]any{"long_name": "x"}), http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteNodePolicies(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		ts := setupTestServer(t, mutation.DeleteReject)
		ts.seedABC(t)

		expectError(t, ts.do(t, http.MethodDelete, "/nodes/B", nil), http.StatusConflict, "CONFLICT")
		if _, err := ts.store.GetNode("B"); err != nil {
			t.Errorf("Rejected delete must leave the node: %v", err)
		}

		rr := ts.do(t, http.MethodDelete, "/nodes/D", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected isolated node delete to succeed, got %d", rr.Code)
		}
		if res := decode[mutation.DeleteResult](t, rr); len(res.RemovedEdges) != 0 {
			t.Errorf("Expected no removed edges, got %v", res.RemovedEdges)
		}
	})

	t.Run("cascade", func(t *testing.T) {
		ts := setupTestServer(t, mutation.DeleteCascade)
		ts.seedABC(t)

		rr := ts.do(t, http.MethodDelete, "/nodes/B", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		res := decode[mutation.DeleteResult](t, rr)
		if len(res.RemovedEdges) != 2 {
			t.Errorf("Expected both incident edges removed, got %v", res.RemovedEdges)
		}
		expectError(t, ts.do(t, http.MethodGet, "/path?source=A&destination=C", nil), http.StatusUnprocessableEntity, "UNREACHABLE")
	})
}

func TestGeneratedIDsAreNotReused(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)

	var ids []storage.NodeID
	for i := 0; i < 2; i++ {
		ids = append(ids, decode[storage.Node](t, ts.do(t, http.MethodPost, "/nodes", labNode())).ID)
	}
	if rr := ts.do(t, http.MethodDelete, "/nodes/"+string(ids[1]), nil); rr.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", rr.Code)
	}
	next := decode[storage.Node](t, ts.do(t, http.MethodPost, "/nodes", labNode())).ID
	if next == ids[1] {
		t.Errorf("Deleted ID %s was handed out again", next)
	}
	if want := storage.NodeID(fmt.Sprintf("N%06d", 3)); next != want {
		t.Errorf("Expected %s, got %s", want, next)
	}
}
