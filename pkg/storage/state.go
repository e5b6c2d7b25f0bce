package storage

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// graphState is the committed graph. It is only touched under the store lock.
type graphState struct {
	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge

	// adjacency lists incident edge IDs per node, kept in ascending order.
	adjacency map[NodeID][]EdgeID
	pairs     map[pairKey]EdgeID

	retiredNodes map[NodeID]struct{}
	retiredEdges map[EdgeID]struct{}

	nextNodeSeq uint64
	nextEdgeSeq uint64
	version     uint64
}

func newGraphState() *graphState {
	return &graphState{
		nodes:        make(map[NodeID]*Node),
		edges:        make(map[EdgeID]*Edge),
		adjacency:    make(map[NodeID][]EdgeID),
		pairs:        make(map[pairKey]EdgeID),
		retiredNodes: make(map[NodeID]struct{}),
		retiredEdges: make(map[EdgeID]struct{}),
	}
}

// lookup is the raw read surface shared by committed state and transactions.
type lookup interface {
	node(id NodeID) (*Node, bool)
	edge(id EdgeID) (*Edge, bool)
	adjacent(id NodeID) []EdgeID
	eachNode(fn func(*Node))
	eachEdge(fn func(*Edge))
	nodeCount() int
	edgeCount() int
	currentVersion() uint64
}

func (g *graphState) node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *graphState) edge(id EdgeID) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

func (g *graphState) adjacent(id NodeID) []EdgeID { return g.adjacency[id] }

func (g *graphState) eachNode(fn func(*Node)) {
	for _, n := range g.nodes {
		fn(n)
	}
}

func (g *graphState) eachEdge(fn func(*Edge)) {
	for _, e := range g.edges {
		fn(e)
	}
}

func (g *graphState) nodeCount() int         { return len(g.nodes) }
func (g *graphState) edgeCount() int         { return len(g.edges) }
func (g *graphState) currentVersion() uint64 { return g.version }

func (g *graphState) nodeRetired(id NodeID) bool {
	_, ok := g.retiredNodes[id]
	return ok
}

func (g *graphState) edgeRetired(id EdgeID) bool {
	_, ok := g.retiredEdges[id]
	return ok
}

// applyBatch applies a batch that was validated by a transaction or read back
// from a persister. An error means the batch does not fit the state.
func (g *graphState) applyBatch(b *Batch) error {
	for i := range b.Ops {
		if err := g.apply(&b.Ops[i]); err != nil {
			return fmt.Errorf("batch %d op %d: %w", b.Version, i, err)
		}
	}
	g.nextNodeSeq = max(g.nextNodeSeq, b.NextNodeSeq)
	g.nextEdgeSeq = max(g.nextEdgeSeq, b.NextEdgeSeq)
	g.version = b.Version
	return nil
}

func (g *graphState) apply(op *Op) error {
	switch op.Kind {
	case OpCreateNode:
		if op.Node == nil {
			return fmt.Errorf("%s without node", op.Kind)
		}
		if _, exists := g.nodes[op.Node.ID]; exists {
			return fmt.Errorf("node %s already exists", op.Node.ID)
		}
		g.nodes[op.Node.ID] = op.Node.Clone()

	case OpUpdateNode:
		if op.Node == nil {
			return fmt.Errorf("%s without node", op.Kind)
		}
		if _, exists := g.nodes[op.Node.ID]; !exists {
			return fmt.Errorf("node %s does not exist", op.Node.ID)
		}
		g.nodes[op.Node.ID] = op.Node.Clone()

	case OpDeleteNode:
		if _, exists := g.nodes[op.NodeID]; !exists {
			return fmt.Errorf("node %s does not exist", op.NodeID)
		}
		if len(g.adjacency[op.NodeID]) > 0 {
			return fmt.Errorf("node %s still has incident edges", op.NodeID)
		}
		delete(g.nodes, op.NodeID)
		delete(g.adjacency, op.NodeID)
		g.retiredNodes[op.NodeID] = struct{}{}

	case OpCreateEdge:
		if op.Edge == nil {
			return fmt.Errorf("%s without edge", op.Kind)
		}
		e := op.Edge.Clone()
		if _, exists := g.edges[e.ID]; exists {
			return fmt.Errorf("edge %s already exists", e.ID)
		}
		if _, ok := g.nodes[e.NodeA]; !ok {
			return fmt.Errorf("edge %s references missing node %s", e.ID, e.NodeA)
		}
		if _, ok := g.nodes[e.NodeB]; !ok {
			return fmt.Errorf("edge %s references missing node %s", e.ID, e.NodeB)
		}
		key := makePairKey(e.NodeA, e.NodeB)
		if other, taken := g.pairs[key]; taken {
			return fmt.Errorf("edge %s duplicates edge %s", e.ID, other)
		}
		g.edges[e.ID] = e
		g.pairs[key] = e.ID
		g.adjacency[e.NodeA] = insertSorted(g.adjacency[e.NodeA], e.ID)
		g.adjacency[e.NodeB] = insertSorted(g.adjacency[e.NodeB], e.ID)

	case OpUpdateEdge:
		if op.Edge == nil {
			return fmt.Errorf("%s without edge", op.Kind)
		}
		prev, exists := g.edges[op.Edge.ID]
		if !exists {
			return fmt.Errorf("edge %s does not exist", op.Edge.ID)
		}
		if makePairKey(prev.NodeA, prev.NodeB) != makePairKey(op.Edge.NodeA, op.Edge.NodeB) {
			return fmt.Errorf("edge %s endpoints cannot change", op.Edge.ID)
		}
		g.edges[op.Edge.ID] = op.Edge.Clone()

	case OpDeleteEdge:
		e, exists := g.edges[op.EdgeID]
		if !exists {
			return fmt.Errorf("edge %s does not exist", op.EdgeID)
		}
		delete(g.edges, e.ID)
		delete(g.pairs, makePairKey(e.NodeA, e.NodeB))
		g.adjacency[e.NodeA] = removeSorted(g.adjacency[e.NodeA], e.ID)
		g.adjacency[e.NodeB] = removeSorted(g.adjacency[e.NodeB], e.ID)
		g.retiredEdges[e.ID] = struct{}{}

	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}
	return nil
}

// snapshot copies the state into a Snapshot with deterministic ordering.
func (g *graphState) snapshot() *Snapshot {
	s := &Snapshot{
		Version:      g.version,
		NextNodeSeq:  g.nextNodeSeq,
		NextEdgeSeq:  g.nextEdgeSeq,
		Nodes:        sortedNodes(g),
		Edges:        sortedEdges(g),
		RetiredNodes: make([]NodeID, 0, len(g.retiredNodes)),
		RetiredEdges: make([]EdgeID, 0, len(g.retiredEdges)),
	}
	for id := range g.retiredNodes {
		s.RetiredNodes = append(s.RetiredNodes, id)
	}
	for id := range g.retiredEdges {
		s.RetiredEdges = append(s.RetiredEdges, id)
	}
	slices.Sort(s.RetiredNodes)
	slices.Sort(s.RetiredEdges)
	return s
}

// stateFromSnapshot rebuilds indexes and checks every invariant a snapshot must hold.
func stateFromSnapshot(s *Snapshot) (*graphState, error) {
	g := newGraphState()
	if s == nil {
		return g, nil
	}
	g.version = s.Version
	g.nextNodeSeq = s.NextNodeSeq
	g.nextEdgeSeq = s.NextEdgeSeq
	for _, id := range s.RetiredNodes {
		g.retiredNodes[id] = struct{}{}
	}
	for _, id := range s.RetiredEdges {
		g.retiredEdges[id] = struct{}{}
	}
	for _, n := range s.Nodes {
		if err := g.apply(&Op{Kind: OpCreateNode, Node: n}); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}
	for _, e := range s.Edges {
		if math.IsNaN(e.Cost) || math.IsInf(e.Cost, 0) || e.Cost < 0 {
			return nil, fmt.Errorf("snapshot: edge %s has invalid cost %v", e.ID, e.Cost)
		}
		if err := g.apply(&Op{Kind: OpCreateEdge, Edge: e}); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}
	return g, nil
}

func sortedNodes(l lookup) []*Node {
	out := make([]*Node, 0, l.nodeCount())
	l.eachNode(func(n *Node) { out = append(out, n.Clone()) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedEdges(l lookup) []*Edge {
	out := make([]*Edge, 0, l.edgeCount())
	l.eachEdge(func(e *Edge) { out = append(out, e.Clone()) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// insertSorted returns a new slice with id inserted in order. The input is never
// modified, so slices shared with committed state stay intact.
func insertSorted(ids []EdgeID, id EdgeID) []EdgeID {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	out := make([]EdgeID, 0, len(ids)+1)
	out = append(out, ids[:i]...)
	out = append(out, id)
	return append(out, ids[i:]...)
}

// removeSorted returns a new slice without id.
func removeSorted(ids []EdgeID, id EdgeID) []EdgeID {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	out := make([]EdgeID, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}
