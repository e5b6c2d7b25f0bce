package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpKind names a single staged change.
type OpKind string

const (
	OpCreateNode OpKind = "create_node"
	OpUpdateNode OpKind = "update_node"
	OpDeleteNode OpKind = "delete_node"
	OpCreateEdge OpKind = "create_edge"
	OpUpdateEdge OpKind = "update_edge"
	OpDeleteEdge OpKind = "delete_edge"
)

// Op is one change inside a batch. Create and update ops carry the full
// resulting entity; delete ops carry only the identifier.
type Op struct {
	Kind   OpKind `json:"kind"`
	Node   *Node  `json:"node,omitempty"`
	Edge   *Edge  `json:"edge,omitempty"`
	NodeID NodeID `json:"node_id,omitempty"`
	EdgeID EdgeID `json:"edge_id,omitempty"`
}

// Batch is everything one committed transaction changed. Batches are the unit of
// persistence: replaying them in version order on top of a snapshot reproduces
// the committed state exactly.
type Batch struct {
	Version     uint64    `json:"version"`
	NextNodeSeq uint64    `json:"next_node_seq"`
	NextEdgeSeq uint64    `json:"next_edge_seq"`
	Ops         []Op      `json:"ops"`
	CommittedAt time.Time `json:"committed_at"`
}

// Marshal encodes the batch for a log record.
func (b *Batch) Marshal() ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBatch decodes a log record.
func UnmarshalBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return &b, nil
}

// Snapshot is a full copy of the committed graph, including the retired-ID sets
// and ID sequences so identifiers stay unique across restarts.
type Snapshot struct {
	Version      uint64    `json:"version"`
	NextNodeSeq  uint64    `json:"next_node_seq"`
	NextEdgeSeq  uint64    `json:"next_edge_seq"`
	Nodes        []*Node   `json:"nodes"`
	Edges        []*Edge   `json:"edges"`
	RetiredNodes []NodeID  `json:"retired_nodes"`
	RetiredEdges []EdgeID  `json:"retired_edges"`
	TakenAt      time.Time `json:"taken_at"`
}
