package graphql

import (
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

type resolvers struct {
	svc Services
}

func stringArg(p graphql.ResolveParams, name string) (string, bool) {
	v, ok := p.Args[name].(string)
	return v, ok && v != ""
}

func floatArg(p graphql.ResolveParams, name string) *float64 {
	if v, ok := p.Args[name].(float64); ok {
		return &v
	}
	return nil
}

func stringPtr(m map[string]any, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

func floatPtr(m map[string]any, key string) *float64 {
	if v, ok := m[key].(float64); ok {
		return &v
	}
	return nil
}

func typePtr(m map[string]any, key string) *string {
	if v, ok := m[key].(storage.NodeType); ok {
		s := string(v)
		return &s
	}
	return nil
}

// routeOptions reads the avoid and transitOnly arguments.
func routeOptions(p graphql.ResolveParams) pathfinder.Options {
	opts := pathfinder.Options{}
	opts.TransitOnly, _ = p.Args["transitOnly"].(bool)
	if list, ok := p.Args["avoid"].([]any); ok {
		for _, v := range list {
			if t, ok := v.(storage.NodeType); ok {
				opts.Avoid = append(opts.Avoid, t)
			}
		}
	}
	return opts
}

func (r *resolvers) nodes(p graphql.ResolveParams) (any, error) {
	wantType, _ := p.Args["type"].(storage.NodeType)
	floor, _ := stringArg(p, "floor")
	building, _ := stringArg(p, "building")

	out := []*storage.Node{}
	for _, n := range r.svc.Store.GetAllNodes() {
		if wantType != "" && n.Type != wantType {
			continue
		}
		if floor != "" && !strings.EqualFold(n.Floor, floor) {
			continue
		}
		if building != "" && !strings.EqualFold(n.Building, building) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *resolvers) node(p graphql.ResolveParams) (any, error) {
	id, _ := stringArg(p, "id")
	n, err := r.svc.Store.GetNode(storage.NodeID(id))
	if err != nil {
		return nil, serviceError("get_node", err)
	}
	return n, nil
}

func (r *resolvers) edges(p graphql.ResolveParams) (any, error) {
	id, ok := stringArg(p, "node")
	if !ok {
		return r.svc.Store.GetAllEdges(), nil
	}
	edges, err := r.svc.Store.IncidentEdges(storage.NodeID(id))
	if err != nil {
		return nil, serviceError("list_edges", err)
	}
	return edges, nil
}

func (r *resolvers) edge(p graphql.ResolveParams) (any, error) {
	id, _ := stringArg(p, "id")
	e, err := r.svc.Store.GetEdge(storage.EdgeID(id))
	if err != nil {
		return nil, serviceError("get_edge", err)
	}
	return e, nil
}

func (r *resolvers) path(p graphql.ResolveParams) (any, error) {
	const op = "find_path"
	source, hasSource := stringArg(p, "source")
	destination, hasDestination := stringArg(p, "destination")
	from, hasFrom := stringArg(p, "from")
	to, hasTo := stringArg(p, "to")
	opts := routeOptions(p)

	var (
		route *pathfinder.Route
		err   error
	)
	switch {
	case (hasSource || hasDestination) && (hasFrom || hasTo):
		err = storage.InvalidArgumentError(op, "path", "", "give either source/destination or from/to, not both")
	case hasFrom || hasTo:
		route, err = r.svc.Pathfinder.GetPathByName(p.Context, from, to, opts)
	case hasSource && hasDestination:
		route, err = r.svc.Pathfinder.GetPath(p.Context, storage.NodeID(source), storage.NodeID(destination), opts)
	default:
		err = storage.InvalidArgumentError(op, "path", "", "source and destination are required")
	}
	if err != nil {
		return nil, serviceError(op, err)
	}
	return route, nil
}

func (r *resolvers) nearest(p graphql.ResolveParams) (any, error) {
	source, _ := stringArg(p, "source")
	t, _ := p.Args["type"].(storage.NodeType)
	route, err := r.svc.Pathfinder.Nearest(p.Context, storage.NodeID(source), t, routeOptions(p))
	if err != nil {
		return nil, serviceError("find_nearest", err)
	}
	return route, nil
}

func (r *resolvers) components(p graphql.ResolveParams) (any, error) {
	result := r.svc.Pathfinder.Components()
	if result == nil || result.Components == nil {
		return []*algorithms.Component{}, nil
	}
	return result.Components, nil
}

func (r *resolvers) stats(p graphql.ResolveParams) (any, error) {
	st := r.svc.Store.Stats()
	return map[string]any{
		"nodeCount": st.NodeCount,
		"edgeCount": st.EdgeCount,
		"version":   st.Version,
	}, nil
}

func (r *resolvers) createNode(p graphql.ResolveParams) (any, error) {
	in, _ := p.Args["input"].(map[string]any)
	attrs := mutation.NodeAttributes{}
	if v := stringPtr(in, "shortName"); v != nil {
		attrs.ShortName = *v
	}
	if v := stringPtr(in, "longName"); v != nil {
		attrs.LongName = *v
	}
	if v := typePtr(in, "type"); v != nil {
		attrs.Type = *v
	}
	if v := stringPtr(in, "floor"); v != nil {
		attrs.Floor = *v
	}
	if v := stringPtr(in, "building"); v != nil {
		attrs.Building = *v
	}
	if v := floatPtr(in, "x"); v != nil {
		attrs.X = *v
	}
	if v := floatPtr(in, "y"); v != nil {
		attrs.Y = *v
	}

	n, err := r.svc.Mutations.CreateNode(p.Context, attrs)
	if err != nil {
		return nil, serviceError("create_node", err)
	}
	return n, nil
}

func (r *resolvers) updateNode(p graphql.ResolveParams) (any, error) {
	id, _ := stringArg(p, "id")
	in, _ := p.Args["input"].(map[string]any)
	patch := mutation.NodePatch{
		ShortName: stringPtr(in, "shortName"),
		LongName:  stringPtr(in, "longName"),
		Type:      typePtr(in, "type"),
		Floor:     stringPtr(in, "floor"),
		Building:  stringPtr(in, "building"),
		X:         floatPtr(in, "x"),
		Y:         floatPtr(in, "y"),
	}
	n, err := r.svc.Mutations.UpdateNode(p.Context, storage.NodeID(id), patch)
	if err != nil {
		return nil, serviceError("update_node", err)
	}
	return n, nil
}

func (r *resolvers) deleteNode(p graphql.ResolveParams) (any, error) {
	id, _ := stringArg(p, "id")
	res, err := r.svc.Mutations.DeleteNode(p.Context, storage.NodeID(id))
	if err != nil {
		return nil, serviceError("delete_node", err)
	}
	if res.RemovedEdges == nil {
		res.RemovedEdges = []storage.EdgeID{}
	}
	return res, nil
}

func (r *resolvers) createEdge(p graphql.ResolveParams) (any, error) {
	a, _ := stringArg(p, "nodeA")
	b, _ := stringArg(p, "nodeB")
	e, err := r.svc.Mutations.CreateEdge(p.Context, mutation.EdgeRequest{
		NodeA:  a,
		NodeB:  b,
		Weight: floatArg(p, "weight"),
	})
	if err != nil {
		return nil, serviceError("create_edge", err)
	}
	return e, nil
}

func (r *resolvers) updateEdge(p graphql.ResolveParams) (any, error) {
	id, _ := stringArg(p, "id")
	e, err := r.svc.Mutations.UpdateEdgeWeight(p.Context, storage.EdgeID(id), floatArg(p, "weight"))
	if err != nil {
		return nil, serviceError("update_edge", err)
	}
	return e, nil
}

func (r *resolvers) deleteEdge(p graphql.ResolveParams) (any, error) {
	id, _ := stringArg(p, "id")
	if err := r.svc.Mutations.DeleteEdge(p.Context, storage.EdgeID(id)); err != nil {
		return nil, serviceError("delete_edge", err)
	}
	return true, nil
}
