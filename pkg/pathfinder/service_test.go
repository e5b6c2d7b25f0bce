package pathfinder

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-wayfinder/pkg/metrics"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

type testNode struct {
	id       storage.NodeID
	short    string
	typ      storage.NodeType
	floor    string
	building string
	x, y     float64
}

type testEdge struct {
	a, b   storage.NodeID
	weight float64
}

func setupStore(t *testing.T, nodes []testNode, edges []testEdge) *storage.Store {
	t.Helper()
	s := storage.NewMemoryStore()
	_, err := s.Update(context.Background(), func(tx *storage.Tx) error {
		for _, n := range nodes {
			b := n.building
			if b == "" {
				b = "Main"
			}
			if _, err := tx.CreateNode(storage.Node{
				ID: n.id, ShortName: n.short, LongName: n.short + " (" + n.floor + ")",
				Type: n.typ, Floor: n.floor, Building: b, X: n.x, Y: n.y,
			}); err != nil {
				return err
			}
		}
		for _, e := range edges {
			w := e.weight
			if _, err := tx.CreateEdge(storage.Edge{NodeA: e.a, NodeB: e.b, Weight: &w}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	return s
}

// scenarioStore is the A-B-C chain with an isolated D.
func scenarioStore(t *testing.T) *storage.Store {
	return setupStore(t, []testNode{
		{id: "A", short: "Alpha", typ: storage.TypeHallway, floor: "1"},
		{id: "B", short: "Bravo", typ: storage.TypeHallway, floor: "1"},
		{id: "C", short: "Charlie", typ: storage.TypeDepartment, floor: "1"},
		{id: "D", short: "Delta", typ: storage.TypeHallway, floor: "1"},
	}, []testEdge{{"A", "B", 10}, {"B", "C", 10}})
}

// twoFloorStore has an entrance and hallway on L1, an elevator pair and a
// staircase pair between L1 and L2, and a department on L2.
func twoFloorStore(t *testing.T) *storage.Store {
	return setupStore(t, []testNode{
		{id: "EXIT1", short: "Entrance", typ: storage.TypeExit, floor: "L1"},
		{id: "HALL1", short: "Hall 1", typ: storage.TypeHallway, floor: "L1", x: 10},
		{id: "ELEV1", short: "Elevator L1", typ: storage.TypeElevator, floor: "L1", x: 20},
		{id: "STAI1", short: "Stairs L1", typ: storage.TypeStairs, floor: "L1", x: 15},
		{id: "REST1", short: "Restroom L1", typ: storage.TypeRestroom, floor: "L1", x: 40},
		{id: "ELEV2", short: "Elevator L2", typ: storage.TypeElevator, floor: "L2", x: 20},
		{id: "STAI2", short: "Stairs L2", typ: storage.TypeStairs, floor: "L2", x: 15},
		{id: "DEPT2", short: "Radiology", typ: storage.TypeDepartment, floor: "L2", x: 30},
		{id: "REST2", short: "Restroom L2", typ: storage.TypeRestroom, floor: "L2", x: 25},
	}, []testEdge{
		{"EXIT1", "HALL1", 10},
		{"HALL1", "ELEV1", 10},
		{"HALL1", "STAI1", 5},
		{"HALL1", "REST1", 30},
		{"ELEV1", "ELEV2", 30},
		{"STAI1", "STAI2", 20},
		{"ELEV2", "DEPT2", 10},
		{"STAI2", "DEPT2", 10},
		{"ELEV2", "REST2", 5},
	})
}

func TestGetPath_Scenario(t *testing.T) {
	svc := NewService(scenarioStore(t), Config{})
	ctx := context.Background()

	r, err := svc.GetPath(ctx, "A", "C", Options{})
	if err != nil {
		t.Fatalf("GetPath failed: %v", err)
	}
	if got := r.IDs(); !reflect.DeepEqual(got, []storage.NodeID{"A", "B", "C"}) {
		t.Errorf("Expected [A B C], got %v", got)
	}
	if r.Cost != 20 {
		t.Errorf("Expected cost 20, got %v", r.Cost)
	}
	if r.Nodes[2].ShortName != "Charlie" {
		t.Errorf("Route should carry full node records, got %+v", r.Nodes[2])
	}
	if r.GraphVersion != 1 {
		t.Errorf("Expected graph version 1, got %d", r.GraphVersion)
	}

	self, err := svc.GetPath(ctx, "B", "B", Options{})
	if err != nil || len(self.Nodes) != 1 || self.Cost != 0 {
		t.Errorf("Self path = %+v, %v", self, err)
	}

	if _, err := svc.GetPath(ctx, "A", "D", Options{}); !storage.IsUnreachable(err) {
		t.Errorf("Expected Unreachable for isolated D, got %v", err)
	}
	if _, err := svc.GetPath(ctx, "A", "ghost", Options{}); !storage.IsNotFound(err) {
		t.Errorf("Expected NotFound for ghost, got %v", err)
	}
	if _, err := svc.GetPath(ctx, "ghost", "A", Options{}); !storage.IsNotFound(err) {
		t.Errorf("Expected NotFound for ghost source, got %v", err)
	}
}

func TestGetPath_LegsAndFloorChanges(t *testing.T) {
	svc := NewService(twoFloorStore(t), Config{})

	r, err := svc.GetPath(context.Background(), "EXIT1", "DEPT2", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []storage.NodeID{"EXIT1", "HALL1", "STAI1", "STAI2", "DEPT2"}
	if !reflect.DeepEqual(r.IDs(), want) {
		t.Fatalf("Expected %v, got %v", want, r.IDs())
	}
	if len(r.Legs) != 2 || r.Legs[0].Floor != "L1" || r.Legs[1].Floor != "L2" {
		t.Fatalf("Unexpected legs %+v", r.Legs)
	}
	if len(r.Legs[0].Points) != 3 || r.Legs[0].Points[1] != (Point{X: 10}) {
		t.Errorf("Unexpected points %+v", r.Legs[0].Points)
	}
	if len(r.FloorChanges) != 1 {
		t.Fatalf("Expected one floor change, got %+v", r.FloorChanges)
	}
	fc := r.FloorChanges[0]
	if fc.From != "STAI1" || fc.To != "STAI2" || fc.Via != storage.TypeStairs || fc.FromFloor != "L1" || fc.ToFloor != "L2" {
		t.Errorf("Unexpected floor change %+v", fc)
	}
}

func TestGetPath_StepFree(t *testing.T) {
	svc := NewService(twoFloorStore(t), Config{})
	opts, err := ParseOptions([]string{"stai"}, false)
	if err != nil {
		t.Fatal(err)
	}

	r, err := svc.GetPath(context.Background(), "EXIT1", "DEPT2", opts)
	if err != nil {
		t.Fatal(err)
	}
	want := []storage.NodeID{"EXIT1", "HALL1", "ELEV1", "ELEV2", "DEPT2"}
	if !reflect.DeepEqual(r.IDs(), want) {
		t.Errorf("Expected %v, got %v", want, r.IDs())
	}
	if r.Cost != 60 {
		t.Errorf("Expected cost 60, got %v", r.Cost)
	}
	if r.FloorChanges[0].Via != storage.TypeElevator {
		t.Errorf("Expected elevator change, got %+v", r.FloorChanges)
	}
}

func TestGetPathByName(t *testing.T) {
	svc := NewService(twoFloorStore(t), Config{})
	ctx := context.Background()

	r, err := svc.GetPathByName(ctx, "entrance", "RADIOLOGY", Options{})
	if err != nil {
		t.Fatalf("GetPathByName failed: %v", err)
	}
	if r.Nodes[0].ID != "EXIT1" || r.Nodes[len(r.Nodes)-1].ID != "DEPT2" {
		t.Errorf("Unexpected route %v", r.IDs())
	}

	if _, err := svc.GetPathByName(ctx, "Entrance", "Cafeteria", Options{}); !storage.IsNotFound(err) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	s := setupStore(t, []testNode{
		{id: "N1", short: "Lobby", typ: storage.TypeHallway, floor: "1"},
		{id: "N2", short: "Info", typ: storage.TypeInfo, floor: "1"},
		{id: "N3", short: "Info", typ: storage.TypeInfo, floor: "2"},
		{id: "Lobby", short: "Side door", typ: storage.TypeExit, floor: "1"},
	}, nil)
	svc := NewService(s, Config{})

	tests := []struct {
		name string
		want storage.NodeID
		kind storage.Kind
	}{
		{"N1", "N1", storage.KindUnknown},
		{"Lobby", "Lobby", storage.KindUnknown},
		{"side DOOR", "Lobby", storage.KindUnknown},
		{"Info (2)", "N3", storage.KindUnknown},
		{"info", "", storage.KindInvalidArgument},
		{"nowhere", "", storage.KindNotFound},
		{"  ", "", storage.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Resolve(tt.name)
			if storage.KindOf(err) != tt.kind {
				t.Fatalf("Resolve(%q) error = %v, want kind %v", tt.name, err, tt.kind)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	svc := NewService(twoFloorStore(t), Config{})
	ctx := context.Background()

	r, err := svc.Nearest(ctx, "ELEV1", storage.TypeRestroom, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if last := r.Nodes[len(r.Nodes)-1].ID; last != "REST2" || r.Cost != 35 {
		t.Errorf("Expected REST2 at cost 35, got %s at %v", last, r.Cost)
	}

	if _, err := svc.Nearest(ctx, "ELEV1", storage.TypeLab, Options{}); !storage.IsNotFound(err) {
		t.Errorf("Expected NotFound for absent type, got %v", err)
	}
	if _, err := svc.Nearest(ctx, "ELEV1", "BOGUS", Options{}); !storage.IsInvalidArgument(err) {
		t.Errorf("Expected InvalidArgument for unknown type, got %v", err)
	}
	if _, err := svc.Nearest(ctx, "ghost", storage.TypeRestroom, Options{}); !storage.IsNotFound(err) {
		t.Errorf("Expected NotFound for ghost source, got %v", err)
	}
}

func TestNearest_Unreachable(t *testing.T) {
	svc := NewService(scenarioStore(t), Config{})
	_, err := svc.Nearest(context.Background(), "D", storage.TypeDepartment, Options{})
	if !storage.IsUnreachable(err) {
		t.Errorf("Expected Unreachable, got %v", err)
	}
}

func TestComponents(t *testing.T) {
	svc := NewService(scenarioStore(t), Config{})
	res := svc.Components()
	if len(res.Components) != 2 || res.Connected() {
		t.Fatalf("Expected two components, got %+v", res.Components)
	}
	if res.NodeComponent["A"] != res.NodeComponent["C"] || res.NodeComponent["A"] == res.NodeComponent["D"] {
		t.Errorf("Unexpected membership %v", res.NodeComponent)
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]string{"stai, elev", ""}, true)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.TransitOnly || !reflect.DeepEqual(opts.Avoid, []storage.NodeType{storage.TypeStairs, storage.TypeElevator}) {
		t.Errorf("Unexpected options %+v", opts)
	}
	if _, err := ParseOptions([]string{"lift"}, false); !storage.IsInvalidArgument(err) {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
}

func TestGetPath_Canceled(t *testing.T) {
	svc := NewService(scenarioStore(t), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.GetPath(ctx, "A", "C", Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGetPath_ConcurrentIdentical(t *testing.T) {
	svc := NewService(twoFloorStore(t), Config{})
	first, err := svc.GetPath(context.Background(), "EXIT1", "REST2", Options{})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.GetPath(context.Background(), "EXIT1", "REST2", Options{})
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(r.IDs(), first.IDs()) || r.Cost != first.Cost {
				errs <- errors.New("concurrent route differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestGetPath_SeesCommittedMutations(t *testing.T) {
	s := scenarioStore(t)
	svc := NewService(s, Config{})
	ctx := context.Background()

	if _, err := svc.GetPath(ctx, "A", "D", Options{}); !storage.IsUnreachable(err) {
		t.Fatalf("Expected Unreachable before the link exists, got %v", err)
	}
	w := 5.0
	if _, err := s.Update(ctx, func(tx *storage.Tx) error {
		_, err := tx.CreateEdge(storage.Edge{NodeA: "C", NodeB: "D", Weight: &w})
		return err
	}); err != nil {
		t.Fatal(err)
	}

	r, err := svc.GetPath(ctx, "A", "D", Options{})
	if err != nil {
		t.Fatalf("Expected a route after linking D, got %v", err)
	}
	if r.Cost != 25 || r.GraphVersion != 2 {
		t.Errorf("Unexpected route cost %v version %d", r.Cost, r.GraphVersion)
	}
}

func TestGetPath_RecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	svc := NewService(scenarioStore(t), Config{Metrics: reg})
	ctx := context.Background()

	_, _ = svc.GetPath(ctx, "A", "C", Options{})
	_, _ = svc.GetPath(ctx, "A", "D", Options{})
	_, _ = svc.GetPath(ctx, "A", "D", Options{})

	count := func(outcome string) float64 {
		var m dto.Metric
		if err := reg.PathQueriesTotal.WithLabelValues("path", outcome).Write(&m); err != nil {
			t.Fatal(err)
		}
		return m.Counter.GetValue()
	}
	if count("success") != 1 || count("unreachable") != 2 {
		t.Errorf("Unexpected counts success=%v unreachable=%v", count("success"), count("unreachable"))
	}
}
