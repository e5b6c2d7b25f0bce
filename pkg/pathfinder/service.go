// Package pathfinder answers routing questions over the live navigation graph.
//
// Every query runs against a single consistent view of the store, so a route
// never mixes data from before and after a concurrent mutation. The returned
// Route records the graph version it was planned on.
package pathfinder

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/metrics"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Config wires optional collaborators into a Service.
type Config struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Service plans routes over a store.
type Service struct {
	store   *storage.Store
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewService creates a path planning service over store.
func NewService(store *storage.Store, cfg Config) *Service {
	s := &Service{store: store, logger: cfg.Logger, metrics: cfg.Metrics}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("pathfinder"))
	return s
}

// GetPath returns the cheapest route from source to destination. It fails
// with NotFound when either node does not exist and with Unreachable when no
// route connects them.
func (s *Service) GetPath(ctx context.Context, source, destination storage.NodeID, opts Options) (*Route, error) {
	return s.plan(ctx, "path", func(g storage.Reader) (*algorithms.Path, error) {
		return algorithms.ShortestPath(ctx, g, source, destination, opts)
	}, logging.Source(string(source)), logging.Destination(string(destination)))
}

// GetPathByName resolves both names with Resolve and plans between them in
// the same view of the graph.
func (s *Service) GetPathByName(ctx context.Context, from, to string, opts Options) (*Route, error) {
	return s.plan(ctx, "path_by_name", func(g storage.Reader) (*algorithms.Path, error) {
		src, err := resolve(g, from)
		if err != nil {
			return nil, err
		}
		dst, err := resolve(g, to)
		if err != nil {
			return nil, err
		}
		return algorithms.ShortestPath(ctx, g, src, dst, opts)
	}, logging.Source(from), logging.Destination(to))
}

// Nearest returns the route to the cheapest reachable node of type t, such as
// the closest restroom. The source itself never counts as a match.
func (s *Service) Nearest(ctx context.Context, source storage.NodeID, t storage.NodeType, opts Options) (*Route, error) {
	const op = "find_nearest"
	return s.plan(ctx, "nearest", func(g storage.Reader) (*algorithms.Path, error) {
		if !t.Valid() {
			return nil, storage.InvalidArgumentError(op, "node_type", string(t), "unknown node type")
		}
		if _, err := g.GetNode(source); err != nil {
			return nil, storage.NodeNotFoundError(op, source)
		}
		if !hasType(g, t, source) {
			return nil, storage.NewError(op).Entity("node_type", string(t)).Kind(storage.KindNotFound).
				Detail("no other node has this type").Err()
		}
		return algorithms.Nearest(ctx, g, source, func(n *storage.Node) bool {
			return n.Type == t && n.ID != source
		}, opts)
	}, logging.Source(string(source)), logging.String("node_type", string(t)))
}

// Resolve maps a user supplied name to a node ID. See GetPathByName.
func (s *Service) Resolve(name string) (storage.NodeID, error) {
	var id storage.NodeID
	err := s.store.View(func(g storage.Reader) error {
		var err error
		id, err = resolve(g, name)
		return err
	})
	return id, err
}

// Components reports the connected islands of the graph. More than one
// component usually means a missing hallway or elevator edge.
func (s *Service) Components() *algorithms.ComponentsResult {
	var res *algorithms.ComponentsResult
	_ = s.store.View(func(g storage.Reader) error {
		res = algorithms.ConnectedComponents(g)
		return nil
	})
	return res
}

func hasType(g storage.Reader, t storage.NodeType, except storage.NodeID) bool {
	for _, n := range g.GetAllNodes() {
		if n.Type == t && n.ID != except {
			return true
		}
	}
	return false
}

// plan runs search under a read view, expands the result into a Route and
// records the outcome.
func (s *Service) plan(ctx context.Context, kind string, search func(storage.Reader) (*algorithms.Path, error), fields ...logging.Field) (*Route, error) {
	logger := logging.FromContext(ctx, s.logger).With(fields...)
	start := time.Now()

	var route *Route
	err := s.store.View(func(g storage.Reader) error {
		p, err := search(g)
		if err != nil {
			return err
		}
		route, err = buildRoute(g, p)
		return err
	})
	elapsed := time.Since(start)
	outcome := outcomeOf(err)

	if s.metrics != nil {
		var cost float64
		var hops int
		if route != nil {
			cost, hops = route.Cost, len(route.Nodes)
		}
		s.metrics.RecordPathQuery(kind, outcome, elapsed, cost, hops)
	}
	if err != nil {
		logger.Info("route query failed", logging.String("query", kind), logging.Kind(outcome), logging.Error(err))
		return nil, err
	}
	logger.Debug("route planned",
		logging.String("query", kind),
		logging.Cost(route.Cost),
		logging.Count(len(route.Nodes)),
		logging.GraphVersion(route.GraphVersion),
		logging.Latency(elapsed))
	return route, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	if k := storage.KindOf(err); k != storage.KindUnknown {
		return k.String()
	}
	return "error"
}

// buildRoute expands a path into full node records.
func buildRoute(g storage.Reader, p *algorithms.Path) (*Route, error) {
	nodes := make([]*storage.Node, len(p.Nodes))
	for i, id := range p.Nodes {
		n, err := g.GetNode(id)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	legs, changes := project(nodes)
	return &Route{
		Nodes:        nodes,
		Edges:        p.Edges,
		Cost:         p.Cost,
		GraphVersion: g.Version(),
		Legs:         legs,
		FloorChanges: changes,
	}, nil
}
