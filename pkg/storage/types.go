package storage

import (
	"math"
	"strings"
	"time"
)

// NodeID identifies a node. IDs are never reused once a node is deleted.
type NodeID string

// EdgeID identifies an edge. IDs are never reused once an edge is deleted.
type EdgeID string

// NodeType is the category of a navigable point.
type NodeType string

const (
	TypeHallway    NodeType = "HALL"
	TypeElevator   NodeType = "ELEV"
	TypeStairs     NodeType = "STAI"
	TypeExit       NodeType = "EXIT"
	TypeConference NodeType = "CONF"
	TypeDepartment NodeType = "DEPT"
	TypeLab        NodeType = "LABS"
	TypeService    NodeType = "SERV"
	TypeInfo       NodeType = "INFO"
	TypeRetail     NodeType = "RETL"
	TypeRestroom   NodeType = "REST"
	TypeBathroom   NodeType = "BATH"
)

var nodeTypes = []NodeType{
	TypeHallway, TypeElevator, TypeStairs, TypeExit,
	TypeConference, TypeDepartment, TypeLab, TypeService,
	TypeInfo, TypeRetail, TypeRestroom, TypeBathroom,
}

// NodeTypes returns every known node type.
func NodeTypes() []NodeType {
	out := make([]NodeType, len(nodeTypes))
	copy(out, nodeTypes)
	return out
}

// ParseNodeType accepts a type code in any case.
func ParseNodeType(s string) (NodeType, bool) {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether t is a known type.
func (t NodeType) Valid() bool {
	for _, known := range nodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Transit reports whether a route may pass through a node of this type.
// Everything else is a point of interest: a place to go to, not through.
func (t NodeType) Transit() bool {
	switch t {
	case TypeHallway, TypeElevator, TypeStairs, TypeExit:
		return true
	}
	return false
}

// FloorChange reports whether the type links floors.
func (t NodeType) FloorChange() bool {
	return t == TypeElevator || t == TypeStairs
}

// Node is a navigable point or point of interest in the building graph.
type Node struct {
	ID        NodeID    `json:"id"`
	ShortName string    `json:"short_name"`
	LongName  string    `json:"long_name"`
	Type      NodeType  `json:"type"`
	Floor     string    `json:"floor"`
	Building  string    `json:"building"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand out of the store.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// Edge is an undirected connection between two distinct nodes.
type Edge struct {
	ID    EdgeID `json:"id"`
	NodeA NodeID `json:"node_a"`
	NodeB NodeID `json:"node_b"`
	// Weight overrides the geometric cost when set.
	Weight    *float64  `json:"weight,omitempty"`
	Cost      float64   `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	c := *e
	if e.Weight != nil {
		w := *e.Weight
		c.Weight = &w
	}
	return &c
}

// Other returns the endpoint opposite id.
func (e *Edge) Other(id NodeID) NodeID {
	if e.NodeA == id {
		return e.NodeB
	}
	return e.NodeA
}

// Touches reports whether id is one of the endpoints.
func (e *Edge) Touches(id NodeID) bool {
	return e.NodeA == id || e.NodeB == id
}

// Neighbor is one adjacency entry as seen from a node.
type Neighbor struct {
	NodeID NodeID  `json:"node_id"`
	EdgeID EdgeID  `json:"edge_id"`
	Cost   float64 `json:"cost"`
}

// Distance is the Euclidean distance between two nodes' coordinates.
func Distance(a, b *Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// edgeCost is the effective traversal cost of an edge between a and b.
func edgeCost(weight *float64, a, b *Node) float64 {
	if weight != nil {
		return *weight
	}
	return Distance(a, b)
}

// pairKey identifies an unordered node pair.
type pairKey struct {
	lo, hi NodeID
}

func makePairKey(a, b NodeID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Statistics describes the committed graph.
type Statistics struct {
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	Version   uint64    `json:"version"`
	Commits   uint64    `json:"commits"`
	LastWrite time.Time `json:"last_write"`
}
