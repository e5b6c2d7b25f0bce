package pubsub

import (
	"time"
)

// TopicGraphChanges carries one Event per committed graph change.
const TopicGraphChanges = "graph.changes"

// EventType names what changed.
type EventType string

const (
	NodeCreated  EventType = "node.created"
	NodeUpdated  EventType = "node.updated"
	NodeDeleted  EventType = "node.deleted"
	EdgeCreated  EventType = "edge.created"
	EdgeUpdated  EventType = "edge.updated"
	EdgeDeleted  EventType = "edge.deleted"
	PlanImported EventType = "plan.imported"
)

// Event announces a committed change. Version is the graph version the change
// produced; subscribers holding a cached node list older than that should reload.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	NodeID  string    `json:"node_id,omitempty"`
	EdgeID  string    `json:"edge_id,omitempty"`
	Count   int       `json:"count,omitempty"`
	Version uint64    `json:"version"`
	Time    time.Time `json:"time"`
}
