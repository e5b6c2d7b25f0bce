package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// types holds the schema's object types so they are built once per schema.
type types struct {
	nodeType       *graphql.Enum
	node           *graphql.Object
	edge           *graphql.Object
	point          *graphql.Object
	leg            *graphql.Object
	floorChange    *graphql.Object
	route          *graphql.Object
	component      *graphql.Object
	deleteResult   *graphql.Object
	stats          *graphql.Object
	nodeInput      *graphql.InputObject
	nodePatchInput *graphql.InputObject
}

func newTypes() *types {
	t := &types{}
	t.nodeType = createNodeTypeEnum()
	t.node = createNodeType(t.nodeType)
	t.edge = createEdgeType()
	t.point = createPointType()
	t.leg = createLegType(t.point)
	t.floorChange = createFloorChangeType(t.nodeType)
	t.route = createRouteType(t.node, t.leg, t.floorChange)
	t.component = createComponentType()
	t.deleteResult = createDeleteResultType()
	t.stats = createStatsType()
	t.nodeInput = createNodeInputType(t.nodeType)
	t.nodePatchInput = createNodePatchInputType(t.nodeType)
	return t
}

// createNodeTypeEnum lists the node categories. Enum values are the storage
// types themselves so nodes serialize without conversion.
func createNodeTypeEnum() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, t := range storage.NodeTypes() {
		values[string(t)] = &graphql.EnumValueConfig{Value: t}
	}
	return graphql.NewEnum(graphql.EnumConfig{
		Name:        "NodeType",
		Description: "Category of a navigable point",
		Values:      values,
	})
}

func createNodeType(nodeType *graphql.Enum) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        "Node",
		Description: "A navigable point or point of interest",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"shortName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"longName":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"type":      &graphql.Field{Type: graphql.NewNonNull(nodeType)},
			"floor":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"building":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"x":         &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"y":         &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"updatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})
}

func createEdgeType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        "Edge",
		Description: "An undirected connection between two nodes",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"nodeA":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"nodeB":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"weight":    &graphql.Field{Type: graphql.Float, Description: "Explicit weight; null when the cost is the distance"},
			"cost":      &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})
}

func createPointType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Point",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"y": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})
}

func createLegType(point *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        "Leg",
		Description: "Consecutive route nodes on one floor",
		Fields: graphql.Fields{
			"building": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"floor":    &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"nodes":    &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))},
			"points":   &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(point))},
		},
	})
}

func createFloorChangeType(nodeType *graphql.Enum) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "FloorChange",
		Fields: graphql.Fields{
			"from":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"to":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"building":  &graphql.Field{Type: graphql.String},
			"fromFloor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"toFloor":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"via":       &graphql.Field{Type: nodeType},
		},
	})
}

func createRouteType(node, leg, floorChange *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        "Route",
		Description: "A least-cost path, endpoints included",
		Fields: graphql.Fields{
			"nodes":        &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(node))},
			"edges":        &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))},
			"cost":         &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"graphVersion": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"legs":         &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(leg))},
			"floorChanges": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(floorChange))},
		},
	})
}

func createComponentType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        "Component",
		Description: "Nodes that can all reach each other",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"nodes":  &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))},
			"size":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"floors": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
		},
	})
}

// createDeleteResultType creates a type for the deleteNode response
func createDeleteResultType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "DeleteResult",
		Fields: graphql.Fields{
			"nodeId":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"removedEdges": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))},
			"version":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
}

func createStatsType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"nodeCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"edgeCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"version":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
}

func createNodeInputType(nodeType *graphql.Enum) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "NodeInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"shortName": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"longName":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"type":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(nodeType)},
			"floor":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"building":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"x":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"y":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})
}

// createNodePatchInputType mirrors NodeInput with every field optional.
func createNodePatchInputType(nodeType *graphql.Enum) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "NodePatchInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"shortName": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"longName":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"type":      &graphql.InputObjectFieldConfig{Type: nodeType},
			"floor":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"building":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"x":         &graphql.InputObjectFieldConfig{Type: graphql.Float},
			"y":         &graphql.InputObjectFieldConfig{Type: graphql.Float},
		},
	})
}
