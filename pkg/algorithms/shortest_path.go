package algorithms

import (
	"context"
	"slices"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// ctxCheckInterval is how many settled nodes pass between cancellation checks.
const ctxCheckInterval = 256

type step struct {
	from storage.NodeID
	edge storage.EdgeID
}

// search holds one run of Dijkstra's algorithm from a single source.
type search struct {
	g      storage.Reader
	source storage.NodeID
	opts   Options

	dist    map[storage.NodeID]float64
	prev    map[storage.NodeID]step
	settled map[storage.NodeID]bool
	queue   pathQueue
}

func newSearch(g storage.Reader, source storage.NodeID, opts Options) *search {
	s := &search{
		g:       g,
		source:  source,
		opts:    opts,
		dist:    map[storage.NodeID]float64{source: 0},
		prev:    make(map[storage.NodeID]step),
		settled: make(map[storage.NodeID]bool),
	}
	s.queue.push(source, 0)
	return s
}

// run settles nodes in order of distance until stop returns true for one of
// them, which is then returned. It returns "" when the reachable set is exhausted.
//
// Ties are broken deterministically: the queue is FIFO among equal distances,
// neighbors are visited by ascending edge ID, and a distance is only replaced
// by a strictly smaller one.
func (s *search) run(ctx context.Context, stop func(storage.NodeID) bool) (storage.NodeID, error) {
	popped := 0
	for s.queue.Len() > 0 {
		if popped%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		popped++

		item := s.queue.pop()
		if s.settled[item.node] || item.dist > s.dist[item.node] {
			continue
		}
		s.settled[item.node] = true

		if stop != nil && stop(item.node) {
			return item.node, nil
		}
		if item.node != s.source && !s.expandable(item.node) {
			continue
		}

		neighbors, err := s.g.Neighbors(item.node)
		if err != nil {
			return "", err
		}
		for _, nb := range neighbors {
			if s.settled[nb.NodeID] {
				continue
			}
			nd := item.dist + nb.Cost
			if old, seen := s.dist[nb.NodeID]; seen && nd >= old {
				continue
			}
			s.dist[nb.NodeID] = nd
			s.prev[nb.NodeID] = step{from: item.node, edge: nb.EdgeID}
			s.queue.push(nb.NodeID, nd)
		}
	}
	return "", nil
}

func (s *search) expandable(id storage.NodeID) bool {
	if !s.opts.restricted() {
		return true
	}
	n, err := s.g.GetNode(id)
	if err != nil {
		return false
	}
	return s.opts.allowsVia(n.Type)
}

// pathTo rebuilds the route to a settled node.
func (s *search) pathTo(target storage.NodeID) *Path {
	p := &Path{Cost: s.dist[target]}
	for at := target; at != s.source; {
		st := s.prev[at]
		p.Nodes = append(p.Nodes, at)
		p.Edges = append(p.Edges, st.edge)
		at = st.from
	}
	p.Nodes = append(p.Nodes, s.source)
	slices.Reverse(p.Nodes)
	slices.Reverse(p.Edges)
	return p
}

// ShortestPath returns the lowest-cost route from source to destination.
//
// A missing endpoint is NotFound; two existing but disconnected endpoints are
// Unreachable. A route from a node to itself is that node alone at cost 0.
func ShortestPath(ctx context.Context, g storage.Reader, source, destination storage.NodeID, opts Options) (*Path, error) {
	const op = "find_path"
	if _, err := g.GetNode(source); err != nil {
		return nil, storage.NodeNotFoundError(op, source)
	}
	if _, err := g.GetNode(destination); err != nil {
		return nil, storage.NodeNotFoundError(op, destination)
	}
	if source == destination {
		return &Path{Nodes: []storage.NodeID{source}, Edges: []storage.EdgeID{}}, nil
	}

	s := newSearch(g, source, opts)
	found, err := s.run(ctx, func(id storage.NodeID) bool { return id == destination })
	if err != nil {
		return nil, err
	}
	if found == "" {
		return nil, storage.UnreachableError(op, source, destination)
	}
	return s.pathTo(found), nil
}

// Nearest returns the route to the cheapest node, the source included, for
// which match returns true. It is Unreachable when no matching node can be
// reached.
func Nearest(ctx context.Context, g storage.Reader, source storage.NodeID, match func(*storage.Node) bool, opts Options) (*Path, error) {
	const op = "find_nearest"
	if _, err := g.GetNode(source); err != nil {
		return nil, storage.NodeNotFoundError(op, source)
	}

	s := newSearch(g, source, opts)
	found, err := s.run(ctx, func(id storage.NodeID) bool {
		n, err := g.GetNode(id)
		return err == nil && match(n)
	})
	if err != nil {
		return nil, err
	}
	if found == "" {
		return nil, storage.NewError(op).Node(source).Kind(storage.KindUnreachable).
			Detail("no matching node reachable from %s", source).Err()
	}
	p := s.pathTo(found)
	if p.Edges == nil {
		p.Edges = []storage.EdgeID{}
	}
	return p, nil
}

// DistancesFrom returns the cost of the cheapest route from source to every
// reachable node.
func DistancesFrom(ctx context.Context, g storage.Reader, source storage.NodeID, opts Options) (map[storage.NodeID]float64, error) {
	if _, err := g.GetNode(source); err != nil {
		return nil, storage.NodeNotFoundError("distances", source)
	}
	s := newSearch(g, source, opts)
	if _, err := s.run(ctx, nil); err != nil {
		return nil, err
	}
	out := make(map[storage.NodeID]float64, len(s.settled))
	for id := range s.settled {
		out[id] = s.dist[id]
	}
	return out, nil
}
