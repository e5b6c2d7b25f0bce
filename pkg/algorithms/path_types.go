package algorithms

import (
	"slices"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Path is a route through the graph, endpoints included.
type Path struct {
	Nodes []storage.NodeID
	// Edges[i] connects Nodes[i] and Nodes[i+1].
	Edges []storage.EdgeID
	Cost  float64
}

// Options restrict which nodes a route may pass through. The source and the
// destination are always allowed; the zero value allows everything.
type Options struct {
	// Avoid lists node types that may not be used as intermediate stops,
	// e.g. STAI for a step-free route.
	Avoid []storage.NodeType
	// TransitOnly limits intermediate stops to hallways, elevators, stairs and exits.
	TransitOnly bool
}

func (o Options) restricted() bool {
	return o.TransitOnly || len(o.Avoid) > 0
}

// allowsVia reports whether a route may pass through a node of type t.
func (o Options) allowsVia(t storage.NodeType) bool {
	if o.TransitOnly && !t.Transit() {
		return false
	}
	return !slices.Contains(o.Avoid, t)
}
