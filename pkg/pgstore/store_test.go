package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// openTestStore connects to WAYFINDER_TEST_DATABASE_URL and empties the
// wayfinder tables. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("WAYFINDER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("WAYFINDER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url, Options{MaxConns: 2})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, err = s.pool.Exec(ctx, `
		TRUNCATE nav_edges, nav_nodes, nav_retired_ids;
		UPDATE nav_meta SET version = 0, next_node_seq = 0, next_edge_seq = 0 WHERE id = 1;
	`)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func hall(name string, x, y float64) storage.Node {
	return storage.Node{ShortName: name, LongName: name, Type: storage.TypeHallway, Floor: "1", Building: "Main", X: x, Y: y}
}

func TestEmptyDatabaseLoadsNothing(t *testing.T) {
	s := openTestStore(t)
	snap, batches, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil || len(batches) != 0 {
		t.Errorf("Expected empty load, got %+v %v", snap, batches)
	}
}

func TestPersistAndReload(t *testing.T) {
	pg := openTestStore(t)
	ctx := context.Background()

	g, err := storage.Open(storage.Config{Persister: pg})
	if err != nil {
		t.Fatal(err)
	}
	var a, b, c *storage.Node
	_, err = g.Update(ctx, func(tx *storage.Tx) error {
		a, _ = tx.CreateNode(hall("a", 0, 0))
		b, _ = tx.CreateNode(hall("b", 3, 4))
		c, _ = tx.CreateNode(hall("c", 6, 8))
		if _, err := tx.CreateEdge(storage.Edge{NodeA: a.ID, NodeB: b.ID}); err != nil {
			return err
		}
		w := 2.5
		_, err := tx.CreateEdge(storage.Edge{NodeA: b.ID, NodeB: c.ID, Weight: &w})
		return err
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	_, err = g.Update(ctx, func(tx *storage.Tx) error {
		_, err := tx.DeleteNode(c.ID, true)
		return err
	})
	if err != nil {
		t.Fatalf("Cascade delete failed: %v", err)
	}

	reopened, err := storage.Open(storage.Config{Persister: pg})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if reopened.Version() != 2 || reopened.NodeCount() != 2 || reopened.EdgeCount() != 1 {
		t.Errorf("Unexpected reloaded stats %+v", reopened.Stats())
	}
	e := reopened.GetAllEdges()[0]
	if e.Cost != 5 || e.Weight != nil {
		t.Errorf("Unexpected edge after reload %+v", e)
	}

	// Retired IDs survive the round trip and are not handed out again.
	var d *storage.Node
	_, err = reopened.Update(ctx, func(tx *storage.Tx) error {
		d, err = tx.CreateNode(hall("d", 1, 1))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.ID == c.ID {
		t.Errorf("Retired ID %s reused", c.ID)
	}
}

func TestPersistRejectsVersionGap(t *testing.T) {
	s := openTestStore(t)
	err := s.Persist(&storage.Batch{Version: 5})
	if !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("Expected ErrVersionMismatch, got %v", err)
	}
}

func TestPersistIsAtomic(t *testing.T) {
	s := openTestStore(t)
	// The edge references a node that does not exist, so the whole batch fails.
	n := hall("a", 0, 0)
	n.ID = "A"
	err := s.Persist(&storage.Batch{Version: 1, Ops: []storage.Op{
		{Kind: storage.OpCreateNode, Node: &n},
		{Kind: storage.OpCreateEdge, Edge: &storage.Edge{ID: "E1", NodeA: "A", NodeB: "ghost"}},
	}})
	if err == nil {
		t.Fatal("Expected foreign key failure")
	}
	snap, _, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Errorf("Failed batch left data behind: %+v", snap)
	}
}
