package storage

// Reader is the read-only view of the graph. All results are copies; callers may
// keep and modify them freely. Lists are ordered by ascending ID.
type Reader interface {
	GetNode(id NodeID) (*Node, error)
	GetEdge(id EdgeID) (*Edge, error)
	GetAllNodes() []*Node
	GetAllEdges() []*Edge
	// Neighbors lists adjacent nodes ordered by ascending edge ID.
	Neighbors(id NodeID) ([]Neighbor, error)
	IncidentEdges(id NodeID) ([]*Edge, error)
	NodeCount() int
	EdgeCount() int
	Version() uint64
}

// reader implements Reader over any lookup.
type reader struct {
	l lookup
}

func (r reader) GetNode(id NodeID) (*Node, error) {
	n, ok := r.l.node(id)
	if !ok || n == nil {
		return nil, NodeNotFoundError("get_node", id)
	}
	return n.Clone(), nil
}

func (r reader) GetEdge(id EdgeID) (*Edge, error) {
	e, ok := r.l.edge(id)
	if !ok || e == nil {
		return nil, EdgeNotFoundError("get_edge", id)
	}
	return e.Clone(), nil
}

func (r reader) GetAllNodes() []*Node { return sortedNodes(r.l) }

func (r reader) GetAllEdges() []*Edge { return sortedEdges(r.l) }

func (r reader) Neighbors(id NodeID) ([]Neighbor, error) {
	if n, ok := r.l.node(id); !ok || n == nil {
		return nil, NodeNotFoundError("neighbors", id)
	}
	adj := r.l.adjacent(id)
	out := make([]Neighbor, 0, len(adj))
	for _, eid := range adj {
		e, ok := r.l.edge(eid)
		if !ok || e == nil {
			continue
		}
		out = append(out, Neighbor{NodeID: e.Other(id), EdgeID: eid, Cost: e.Cost})
	}
	return out, nil
}

func (r reader) IncidentEdges(id NodeID) ([]*Edge, error) {
	if n, ok := r.l.node(id); !ok || n == nil {
		return nil, NodeNotFoundError("incident_edges", id)
	}
	adj := r.l.adjacent(id)
	out := make([]*Edge, 0, len(adj))
	for _, eid := range adj {
		if e, ok := r.l.edge(eid); ok && e != nil {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (r reader) NodeCount() int  { return r.l.nodeCount() }
func (r reader) EdgeCount() int  { return r.l.edgeCount() }
func (r reader) Version() uint64 { return r.l.currentVersion() }
