package storage

import (
	"fmt"
	"math"
	"time"
)

// Tx stages changes against an overlay of the committed graph. Reads through a
// Tx see its own staged changes. Nothing becomes visible to other readers until
// the function passed to Store.Update returns nil and the batch is committed.
//
// A Tx is only valid inside the Update callback and must not be retained.
type Tx struct {
	Reader

	base *graphState
	now  time.Time

	// nil values mark deletions.
	nodes     map[NodeID]*Node
	edges     map[EdgeID]*Edge
	adjacency map[NodeID][]EdgeID
	// empty values mark removed pairs.
	pairs map[pairKey]EdgeID

	retiredNodes map[NodeID]struct{}
	retiredEdges map[EdgeID]struct{}

	nodeDelta int
	edgeDelta int

	nextNodeSeq uint64
	nextEdgeSeq uint64

	ops []Op
}

func newTx(base *graphState, now time.Time) *Tx {
	tx := &Tx{
		base:         base,
		now:          now,
		nodes:        make(map[NodeID]*Node),
		edges:        make(map[EdgeID]*Edge),
		adjacency:    make(map[NodeID][]EdgeID),
		pairs:        make(map[pairKey]EdgeID),
		retiredNodes: make(map[NodeID]struct{}),
		retiredEdges: make(map[EdgeID]struct{}),
		nextNodeSeq:  base.nextNodeSeq,
		nextEdgeSeq:  base.nextEdgeSeq,
	}
	tx.Reader = reader{l: tx}
	return tx
}

// Now is the timestamp stamped on everything this transaction writes.
func (tx *Tx) Now() time.Time { return tx.now }

// Ops returns the changes staged so far.
func (tx *Tx) Ops() []Op {
	out := make([]Op, len(tx.ops))
	copy(out, tx.ops)
	return out
}

// lookup implementation

func (tx *Tx) node(id NodeID) (*Node, bool) {
	if n, staged := tx.nodes[id]; staged {
		return n, n != nil
	}
	return tx.base.node(id)
}

func (tx *Tx) edge(id EdgeID) (*Edge, bool) {
	if e, staged := tx.edges[id]; staged {
		return e, e != nil
	}
	return tx.base.edge(id)
}

func (tx *Tx) adjacent(id NodeID) []EdgeID {
	if adj, staged := tx.adjacency[id]; staged {
		return adj
	}
	return tx.base.adjacent(id)
}

func (tx *Tx) eachNode(fn func(*Node)) {
	tx.base.eachNode(func(n *Node) {
		if _, staged := tx.nodes[n.ID]; !staged {
			fn(n)
		}
	})
	for _, n := range tx.nodes {
		if n != nil {
			fn(n)
		}
	}
}

func (tx *Tx) eachEdge(fn func(*Edge)) {
	tx.base.eachEdge(func(e *Edge) {
		if _, staged := tx.edges[e.ID]; !staged {
			fn(e)
		}
	})
	for _, e := range tx.edges {
		if e != nil {
			fn(e)
		}
	}
}

func (tx *Tx) nodeCount() int         { return tx.base.nodeCount() + tx.nodeDelta }
func (tx *Tx) edgeCount() int         { return tx.base.edgeCount() + tx.edgeDelta }
func (tx *Tx) currentVersion() uint64 { return tx.base.version }

func (tx *Tx) pairEdge(k pairKey) (EdgeID, bool) {
	if id, staged := tx.pairs[k]; staged {
		return id, id != ""
	}
	id, ok := tx.base.pairs[k]
	return id, ok
}

func (tx *Tx) nodeIDTaken(id NodeID) bool {
	if _, ok := tx.node(id); ok {
		return true
	}
	if _, ok := tx.retiredNodes[id]; ok {
		return true
	}
	return tx.base.nodeRetired(id)
}

func (tx *Tx) edgeIDTaken(id EdgeID) bool {
	if _, ok := tx.edge(id); ok {
		return true
	}
	if _, ok := tx.retiredEdges[id]; ok {
		return true
	}
	return tx.base.edgeRetired(id)
}

func (tx *Tx) nextNodeID() NodeID {
	for {
		tx.nextNodeSeq++
		id := NodeID(fmt.Sprintf("N%06d", tx.nextNodeSeq))
		if !tx.nodeIDTaken(id) {
			return id
		}
	}
}

func (tx *Tx) nextEdgeID() EdgeID {
	for {
		tx.nextEdgeSeq++
		id := EdgeID(fmt.Sprintf("E%06d", tx.nextEdgeSeq))
		if !tx.edgeIDTaken(id) {
			return id
		}
	}
}

// Mutations

// CreateNode stages a new node. An empty ID is replaced by a generated one; an
// explicit ID must never have been used before.
func (tx *Tx) CreateNode(n Node) (*Node, error) {
	const op = "create_node"
	if err := checkNodeShape(op, &n); err != nil {
		return nil, err
	}
	if n.ID == "" {
		n.ID = tx.nextNodeID()
	} else if tx.nodeIDTaken(n.ID) {
		return nil, ConflictError(op, "node", string(n.ID), "identifier already in use")
	}
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now

	stored := n.Clone()
	tx.nodes[n.ID] = stored
	tx.nodeDelta++
	tx.ops = append(tx.ops, Op{Kind: OpCreateNode, Node: stored.Clone()})
	return stored.Clone(), nil
}

// ReplaceNode stages new attributes for an existing node. The creation time is
// kept. Edges without an explicit weight get their cost recomputed when the
// node moves.
func (tx *Tx) ReplaceNode(n Node) (*Node, error) {
	const op = "update_node"
	prev, ok := tx.node(n.ID)
	if !ok {
		return nil, NodeNotFoundError(op, n.ID)
	}
	if err := checkNodeShape(op, &n); err != nil {
		return nil, err
	}
	n.CreatedAt = prev.CreatedAt
	n.UpdatedAt = tx.now

	stored := n.Clone()
	tx.nodes[n.ID] = stored
	tx.ops = append(tx.ops, Op{Kind: OpUpdateNode, Node: stored.Clone()})

	if prev.X != n.X || prev.Y != n.Y {
		if err := tx.recomputeCosts(n.ID); err != nil {
			return nil, err
		}
	}
	return stored.Clone(), nil
}

func (tx *Tx) recomputeCosts(id NodeID) error {
	for _, eid := range tx.adjacent(id) {
		e, ok := tx.edge(eid)
		if !ok || e.Weight != nil {
			continue
		}
		a, _ := tx.node(e.NodeA)
		b, _ := tx.node(e.NodeB)
		cost := Distance(a, b)
		if !finiteNonNegative(cost) {
			return InvalidArgumentError("update_node", "edge", string(eid), "derived cost is not finite")
		}
		if cost == e.Cost {
			continue
		}
		updated := e.Clone()
		updated.Cost = cost
		tx.edges[eid] = updated
		tx.ops = append(tx.ops, Op{Kind: OpUpdateEdge, Edge: updated.Clone()})
	}
	return nil
}

// DeleteNode stages removal of a node. With cascade false a node that still has
// incident edges is a Conflict; with cascade true those edges are removed in
// the same transaction. It returns the removed edge IDs.
func (tx *Tx) DeleteNode(id NodeID, cascade bool) ([]EdgeID, error) {
	const op = "delete_node"
	if _, ok := tx.node(id); !ok {
		return nil, NodeNotFoundError(op, id)
	}
	adj := tx.adjacent(id)
	if len(adj) > 0 && !cascade {
		return nil, NewError(op).Node(id).Kind(KindConflict).
			Detail("node has %d incident edge(s)", len(adj)).Err()
	}

	removed := make([]EdgeID, len(adj))
	copy(removed, adj)
	for _, eid := range removed {
		if err := tx.DeleteEdge(eid); err != nil {
			return nil, err
		}
	}

	tx.nodes[id] = nil
	tx.adjacency[id] = nil
	tx.retiredNodes[id] = struct{}{}
	tx.nodeDelta--
	tx.ops = append(tx.ops, Op{Kind: OpDeleteNode, NodeID: id})
	return removed, nil
}

// CreateEdge stages a new undirected edge. Both endpoints must exist and differ,
// and the pair must not already be connected. Cost is the explicit weight when
// given, otherwise the distance between the endpoints.
func (tx *Tx) CreateEdge(e Edge) (*Edge, error) {
	const op = "create_edge"
	if e.NodeA == e.NodeB {
		return nil, InvalidArgumentError(op, "edge", string(e.ID), fmt.Sprintf("self-loop on node %s", e.NodeA))
	}
	if e.Weight != nil && !finiteNonNegative(*e.Weight) {
		return nil, InvalidArgumentError(op, "edge", string(e.ID), "weight must be finite and non-negative")
	}
	a, ok := tx.node(e.NodeA)
	if !ok {
		return nil, NodeNotFoundError(op, e.NodeA)
	}
	b, ok := tx.node(e.NodeB)
	if !ok {
		return nil, NodeNotFoundError(op, e.NodeB)
	}
	key := makePairKey(e.NodeA, e.NodeB)
	if other, taken := tx.pairEdge(key); taken {
		return nil, ConflictError(op, "edge", string(other),
			fmt.Sprintf("nodes %s and %s are already connected", e.NodeA, e.NodeB))
	}
	if e.ID == "" {
		e.ID = tx.nextEdgeID()
	} else if tx.edgeIDTaken(e.ID) {
		return nil, ConflictError(op, "edge", string(e.ID), "identifier already in use")
	}
	e.Cost = edgeCost(e.Weight, a, b)
	if !finiteNonNegative(e.Cost) {
		return nil, InvalidArgumentError(op, "edge", string(e.ID), "cost is not finite")
	}
	e.CreatedAt = tx.now

	stored := e.Clone()
	tx.edges[e.ID] = stored
	tx.pairs[key] = e.ID
	tx.adjacency[e.NodeA] = insertSorted(tx.adjacent(e.NodeA), e.ID)
	tx.adjacency[e.NodeB] = insertSorted(tx.adjacent(e.NodeB), e.ID)
	tx.edgeDelta++
	tx.ops = append(tx.ops, Op{Kind: OpCreateEdge, Edge: stored.Clone()})
	return stored.Clone(), nil
}

// SetEdgeWeight stages a new explicit weight for an edge. A nil weight reverts
// the edge to its geometric cost.
func (tx *Tx) SetEdgeWeight(id EdgeID, weight *float64) (*Edge, error) {
	const op = "update_edge"
	e, ok := tx.edge(id)
	if !ok {
		return nil, EdgeNotFoundError(op, id)
	}
	if weight != nil && !finiteNonNegative(*weight) {
		return nil, InvalidArgumentError(op, "edge", string(id), "weight must be finite and non-negative")
	}
	a, _ := tx.node(e.NodeA)
	b, _ := tx.node(e.NodeB)

	updated := e.Clone()
	updated.Weight = nil
	if weight != nil {
		w := *weight
		updated.Weight = &w
	}
	updated.Cost = edgeCost(updated.Weight, a, b)
	if !finiteNonNegative(updated.Cost) {
		return nil, InvalidArgumentError(op, "edge", string(id), "cost is not finite")
	}
	tx.edges[id] = updated
	tx.ops = append(tx.ops, Op{Kind: OpUpdateEdge, Edge: updated.Clone()})
	return updated.Clone(), nil
}

// DeleteEdge stages removal of an edge.
func (tx *Tx) DeleteEdge(id EdgeID) error {
	e, ok := tx.edge(id)
	if !ok {
		return EdgeNotFoundError("delete_edge", id)
	}
	tx.edges[id] = nil
	tx.pairs[makePairKey(e.NodeA, e.NodeB)] = ""
	tx.adjacency[e.NodeA] = removeSorted(tx.adjacent(e.NodeA), id)
	tx.adjacency[e.NodeB] = removeSorted(tx.adjacent(e.NodeB), id)
	tx.retiredEdges[id] = struct{}{}
	tx.edgeDelta--
	tx.ops = append(tx.ops, Op{Kind: OpDeleteEdge, EdgeID: id})
	return nil
}

// checkNodeShape enforces what the store itself depends on. Naming rules live in
// the validation package.
func checkNodeShape(op string, n *Node) error {
	if !n.Type.Valid() {
		return InvalidArgumentError(op, "node", string(n.ID), fmt.Sprintf("unknown node type %q", n.Type))
	}
	if !finiteNonNegative(n.X) || !finiteNonNegative(n.Y) {
		return InvalidArgumentError(op, "node", string(n.ID), "coordinates must be finite and non-negative")
	}
	return nil
}

func finiteNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
