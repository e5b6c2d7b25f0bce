package pathfinder

import (
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Route is a planned path with the node details a map needs to draw it.
type Route struct {
	Nodes        []*storage.Node  `json:"nodes"`
	Edges        []storage.EdgeID `json:"edges"`
	Cost         float64          `json:"cost"`
	GraphVersion uint64           `json:"graph_version"`
	Legs         []Leg            `json:"legs"`
	FloorChanges []FloorChange    `json:"floor_changes"`
}

// Leg is a run of consecutive route nodes on one floor of one building.
type Leg struct {
	Building string           `json:"building"`
	Floor    string           `json:"floor"`
	Nodes    []storage.NodeID `json:"nodes"`
	Points   []Point          `json:"points"`
}

// Point is a drawing coordinate on a floor map.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FloorChange marks where a route leaves one floor or building for another.
type FloorChange struct {
	From     storage.NodeID `json:"from"`
	To       storage.NodeID `json:"to"`
	Building string         `json:"building"`
	// FromFloor and ToFloor hold the floors either side of the change.
	FromFloor string `json:"from_floor"`
	ToFloor   string `json:"to_floor"`
	// Via is the type of the node the change happens at, usually ELEV or STAI.
	Via storage.NodeType `json:"via"`
}

// IDs returns the route's node identifiers in order.
func (r *Route) IDs() []storage.NodeID {
	ids := make([]storage.NodeID, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// project splits nodes into floor legs and the transitions between them.
func project(nodes []*storage.Node) ([]Leg, []FloorChange) {
	legs := []Leg{}
	changes := []FloorChange{}
	for i, n := range nodes {
		if i == 0 || !sameFloor(nodes[i-1], n) {
			if i > 0 {
				prev := nodes[i-1]
				changes = append(changes, FloorChange{
					From:      prev.ID,
					To:        n.ID,
					Building:  n.Building,
					FromFloor: prev.Floor,
					ToFloor:   n.Floor,
					Via:       prev.Type,
				})
			}
			legs = append(legs, Leg{Building: n.Building, Floor: n.Floor})
		}
		leg := &legs[len(legs)-1]
		leg.Nodes = append(leg.Nodes, n.ID)
		leg.Points = append(leg.Points, Point{X: n.X, Y: n.Y})
	}
	return legs, changes
}

func sameFloor(a, b *storage.Node) bool {
	return a.Floor == b.Floor && a.Building == b.Building
}
