package algorithms

import (
	"container/list"
	"slices"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Component is a set of nodes that can all reach each other.
type Component struct {
	ID     int              `json:"id"`
	Nodes  []storage.NodeID `json:"nodes"`
	Size   int              `json:"size"`
	Floors []string         `json:"floors"`
}

// ComponentsResult partitions the graph into connected components.
type ComponentsResult struct {
	Components    []*Component
	NodeComponent map[storage.NodeID]int
}

// Connected reports whether the whole graph is one component. An empty graph
// counts as connected.
func (r *ComponentsResult) Connected() bool {
	return len(r.Components) <= 1
}

// ConnectedComponents finds all connected components with a breadth-first
// sweep. Components are numbered in order of their smallest node ID and list
// their nodes in ascending order.
func ConnectedComponents(g storage.Reader) *ComponentsResult {
	nodes := g.GetAllNodes()
	floorOf := make(map[storage.NodeID]string, len(nodes))
	for _, n := range nodes {
		floorOf[n.ID] = n.Floor
	}

	visited := make(map[storage.NodeID]bool, len(nodes))
	result := &ComponentsResult{NodeComponent: make(map[storage.NodeID]int, len(nodes))}

	for _, start := range nodes {
		if visited[start.ID] {
			continue
		}

		component := &Component{ID: len(result.Components)}
		floors := make(map[string]bool)

		queue := list.New()
		queue.PushBack(start.ID)
		visited[start.ID] = true

		for queue.Len() > 0 {
			id := queue.Remove(queue.Front()).(storage.NodeID)
			component.Nodes = append(component.Nodes, id)
			result.NodeComponent[id] = component.ID
			floors[floorOf[id]] = true

			neighbors, err := g.Neighbors(id)
			if err != nil {
				continue
			}
			for _, nb := range neighbors {
				if !visited[nb.NodeID] {
					visited[nb.NodeID] = true
					queue.PushBack(nb.NodeID)
				}
			}
		}

		slices.Sort(component.Nodes)
		for f := range floors {
			component.Floors = append(component.Floors, f)
		}
		slices.Sort(component.Floors)
		component.Size = len(component.Nodes)
		result.Components = append(result.Components, component)
	}

	return result
}
