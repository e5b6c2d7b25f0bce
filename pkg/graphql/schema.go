// Package graphql exposes the wayfinder over GraphQL: typed queries for nodes,
// edges and routes, and the mutations an administrator needs to edit the map.
package graphql

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Services are the backends the schema resolves against.
type Services struct {
	Store      *storage.Store
	Mutations  *mutation.Service
	Pathfinder *pathfinder.Service
}

// NewSchema builds the wayfinder schema.
func NewSchema(svc Services) (graphql.Schema, error) {
	if svc.Store == nil || svc.Mutations == nil || svc.Pathfinder == nil {
		return graphql.Schema{}, errors.New("graphql: store, mutation service and pathfinder are required")
	}
	r := &resolvers{svc: svc}
	t := newTypes()

	routeArgs := graphql.FieldConfigArgument{
		"avoid": &graphql.ArgumentConfig{
			Type:        graphql.NewList(graphql.NewNonNull(t.nodeType)),
			Description: "Node types that may not be passed through",
		},
		"transitOnly": &graphql.ArgumentConfig{
			Type:         graphql.Boolean,
			DefaultValue: false,
			Description:  "Only pass through hallways, elevators, stairs and exits",
		},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"nodes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.node))),
				Args: graphql.FieldConfigArgument{
					"type":     &graphql.ArgumentConfig{Type: t.nodeType},
					"floor":    &graphql.ArgumentConfig{Type: graphql.String},
					"building": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.nodes,
			},
			"node": &graphql.Field{
				Type:    t.node,
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.node,
			},
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.edge))),
				Args: graphql.FieldConfigArgument{
					"node": &graphql.ArgumentConfig{Type: graphql.ID, Description: "Only edges touching this node"},
				},
				Resolve: r.edges,
			},
			"edge": &graphql.Field{
				Type:    t.edge,
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.edge,
			},
			"path": &graphql.Field{
				Type:        t.route,
				Description: "Least-cost route between two nodes, by ID (source, destination) or by name (from, to)",
				Args: withArgs(routeArgs, graphql.FieldConfigArgument{
					"source":      &graphql.ArgumentConfig{Type: graphql.ID},
					"destination": &graphql.ArgumentConfig{Type: graphql.ID},
					"from":        &graphql.ArgumentConfig{Type: graphql.String},
					"to":          &graphql.ArgumentConfig{Type: graphql.String},
				}),
				Resolve: r.path,
			},
			"nearest": &graphql.Field{
				Type:        t.route,
				Description: "Route to the closest node of a type",
				Args: withArgs(routeArgs, graphql.FieldConfigArgument{
					"source": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"type":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.nodeType)},
				}),
				Resolve: r.nearest,
			},
			"components": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.component))),
				Resolve: r.components,
			},
			"stats": &graphql.Field{
				Type:    graphql.NewNonNull(t.stats),
				Resolve: r.stats,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createNode": &graphql.Field{
				Type:    t.node,
				Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.nodeInput)}},
				Resolve: r.createNode,
			},
			"updateNode": &graphql.Field{
				Type: t.node,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(t.nodePatchInput)},
				},
				Resolve: r.updateNode,
			},
			"deleteNode": &graphql.Field{
				Type:    t.deleteResult,
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.deleteNode,
			},
			"createEdge": &graphql.Field{
				Type: t.edge,
				Args: graphql.FieldConfigArgument{
					"nodeA":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"nodeB":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"weight": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.createEdge,
			},
			"updateEdge": &graphql.Field{
				Type:        t.edge,
				Description: "Set an edge's weight; omit weight to revert to the distance between its endpoints",
				Args: graphql.FieldConfigArgument{
					"id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"weight": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.updateEdge,
			},
			"deleteEdge": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.deleteEdge,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// withArgs merges argument sets; later sets win.
func withArgs(sets ...graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	out := graphql.FieldConfigArgument{}
	for _, set := range sets {
		for name, arg := range set {
			out[name] = arg
		}
	}
	return out
}
