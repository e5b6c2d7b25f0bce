// Package floorplan loads building graphs from YAML or HCL files so a hospital
// can be described in version-controlled text and imported in one transaction.
package floorplan

import (
	"fmt"

	"github.com/dd0wney/cluso-wayfinder/pkg/validation"
)

// Plan is a set of nodes and edges to import together.
type Plan struct {
	// Sources lists the files the plan was read from.
	Sources []string                 `yaml:"-"`
	Nodes   []validation.NodeRequest `yaml:"nodes"`
	Edges   []validation.EdgeRequest `yaml:"edges"`
}

// Merge appends other's content to p.
func (p *Plan) Merge(other *Plan) {
	p.Sources = append(p.Sources, other.Sources...)
	p.Nodes = append(p.Nodes, other.Nodes...)
	p.Edges = append(p.Edges, other.Edges...)
}

// Validate checks every entry and that node IDs are unique within the plan.
// Whether edge endpoints exist is only known against a graph, so that is left
// to the import.
func (p *Plan) Validate() error {
	seen := make(map[string]bool, len(p.Nodes))
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if err := validation.ValidateNodeRequest(n); err != nil {
			return fmt.Errorf("node %d (%s): %w", i, n.ID, err)
		}
		if n.ID == "" {
			continue
		}
		if seen[n.ID] {
			return fmt.Errorf("node %d: duplicate id %s", i, n.ID)
		}
		seen[n.ID] = true
	}
	for i := range p.Edges {
		e := &p.Edges[i]
		if err := validation.ValidateEdgeRequest(e); err != nil {
			return fmt.Errorf("edge %d (%s-%s): %w", i, e.NodeA, e.NodeB, err)
		}
	}
	return nil
}
