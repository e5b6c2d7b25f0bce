package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// runScript interprets each number as one small transaction against a handful
// of node IDs. Many steps fail on purpose; failures must leave no trace.
func runScript(s *Store, script []uint32) error {
	ctx := context.Background()
	for _, step := range script {
		a := NodeID(fmt.Sprintf("n%d", step%7))
		b := NodeID(fmt.Sprintf("n%d", (step/7)%7))
		before := s.Snapshot()

		_, err := s.Update(ctx, func(tx *Tx) error {
			switch (step / 49) % 5 {
			case 0:
				_, err := tx.CreateNode(Node{ID: a, ShortName: string(a), LongName: string(a), Type: TypeHallway, X: float64(step % 13), Y: float64(step % 17)})
				return err
			case 1:
				_, err := tx.CreateEdge(Edge{NodeA: a, NodeB: b})
				return err
			case 2:
				_, err := tx.DeleteNode(a, step%2 == 0)
				return err
			case 3:
				nb, err := tx.Neighbors(a)
				if err != nil || len(nb) == 0 {
					return err
				}
				return tx.DeleteEdge(nb[0].EdgeID)
			default:
				n, err := tx.GetNode(a)
				if err != nil {
					return err
				}
				n.X += 1
				_, err = tx.ReplaceNode(*n)
				return err
			}
		})
		if err != nil && s.Version() != before.Version {
			return fmt.Errorf("failed update bumped version")
		}
		if err := checkInvariants(s); err != nil {
			return err
		}
	}
	return nil
}

func checkInvariants(s *Store) error {
	return s.View(func(r Reader) error {
		pairs := make(map[pairKey]bool)
		adjCount := make(map[NodeID]int)
		for _, e := range r.GetAllEdges() {
			if _, err := r.GetNode(e.NodeA); err != nil {
				return fmt.Errorf("edge %s dangles at %s", e.ID, e.NodeA)
			}
			if _, err := r.GetNode(e.NodeB); err != nil {
				return fmt.Errorf("edge %s dangles at %s", e.ID, e.NodeB)
			}
			if e.NodeA == e.NodeB {
				return fmt.Errorf("edge %s is a self loop", e.ID)
			}
			k := makePairKey(e.NodeA, e.NodeB)
			if pairs[k] {
				return fmt.Errorf("duplicate edge for %v", k)
			}
			pairs[k] = true
			if !finiteNonNegative(e.Cost) {
				return fmt.Errorf("edge %s has cost %v", e.ID, e.Cost)
			}
			if e.Weight == nil {
				a, _ := r.GetNode(e.NodeA)
				b, _ := r.GetNode(e.NodeB)
				if Distance(a, b) != e.Cost {
					return fmt.Errorf("edge %s stale cost %v", e.ID, e.Cost)
				}
			}
			adjCount[e.NodeA]++
			adjCount[e.NodeB]++
		}
		for _, n := range r.GetAllNodes() {
			nb, err := r.Neighbors(n.ID)
			if err != nil {
				return err
			}
			if len(nb) != adjCount[n.ID] {
				return fmt.Errorf("node %s adjacency %d, edges %d", n.ID, len(nb), adjCount[n.ID])
			}
			for i := 1; i < len(nb); i++ {
				if nb[i-1].EdgeID >= nb[i].EdgeID {
					return fmt.Errorf("node %s neighbors out of order", n.ID)
				}
			}
		}
		return nil
	})
}

func TestGraphInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("invariants hold after any sequence of transactions", prop.ForAll(
		func(script []uint32) bool {
			s := NewMemoryStore()
			if err := runScript(s, script); err != nil {
				t.Log(err)
				return false
			}
			return true
		},
		gen.SliceOf(gen.UInt32()),
	))

	properties.Property("replaying committed batches reproduces the graph", prop.ForAll(
		func(script []uint32) bool {
			p := &batchPersister{}
			s, _ := Open(Config{Persister: p})
			if err := runScript(s, script); err != nil {
				return false
			}
			replayed, err := Open(Config{Persister: &batchPersister{batches: p.batches}})
			if err != nil {
				t.Log(err)
				return false
			}
			return sameGraph(s.Snapshot(), replayed.Snapshot())
		},
		gen.SliceOf(gen.UInt32()),
	))

	properties.Property("identifiers are never reused", prop.ForAll(
		func(script []uint32) bool {
			p := &batchPersister{}
			s, _ := Open(Config{Persister: p})
			_ = runScript(s, script)

			createdNodes := make(map[NodeID]int)
			createdEdges := make(map[EdgeID]int)
			for _, b := range p.batches {
				for _, op := range b.Ops {
					switch op.Kind {
					case OpCreateNode:
						createdNodes[op.Node.ID]++
					case OpCreateEdge:
						createdEdges[op.Edge.ID]++
					}
				}
			}
			for _, n := range createdNodes {
				if n > 1 {
					return false
				}
			}
			for _, n := range createdEdges {
				if n > 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt32()),
	))

	properties.TestingRun(t)
}

func sameGraph(a, b *Snapshot) bool {
	a.TakenAt, b.TakenAt = time.Time{}, time.Time{}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return string(ja) == string(jb)
}
