package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

const (
	retiredNode = "node"
	retiredEdge = "edge"
)

// ErrVersionMismatch means the database is not at the version the batch
// follows, usually because another process wrote to it.
var ErrVersionMismatch = fmt.Errorf("pgstore: stored graph version does not match")

// Persist applies b in one transaction. The metadata row is only advanced if
// it still holds the previous version, so two servers sharing a database
// cannot silently overwrite each other.
func (s *Store) Persist(b *storage.Batch) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE nav_meta
		SET version = $1, next_node_seq = $2, next_edge_seq = $3, updated_at = $4
		WHERE id = 1 AND version = $5
	`, b.Version, b.NextNodeSeq, b.NextEdgeSeq, b.CommittedAt, b.Version-1)
	if err != nil {
		return fmt.Errorf("failed to update graph metadata: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%w: batch %d", ErrVersionMismatch, b.Version)
	}

	queue := &pgx.Batch{}
	for i := range b.Ops {
		if err := queueOp(queue, &b.Ops[i]); err != nil {
			return err
		}
	}
	results := tx.SendBatch(ctx, queue)
	for i := range b.Ops {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("op %d (%s): %w", i, b.Ops[i].Kind, err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch %d: %w", b.Version, err)
	}
	return nil
}

func queueOp(q *pgx.Batch, op *storage.Op) error {
	switch op.Kind {
	case storage.OpCreateNode, storage.OpUpdateNode:
		n := op.Node
		q.Queue(`
			INSERT INTO nav_nodes (id, short_name, long_name, node_type, floor, building, x, y, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				short_name = EXCLUDED.short_name,
				long_name = EXCLUDED.long_name,
				node_type = EXCLUDED.node_type,
				floor = EXCLUDED.floor,
				building = EXCLUDED.building,
				x = EXCLUDED.x,
				y = EXCLUDED.y,
				updated_at = EXCLUDED.updated_at
		`, string(n.ID), n.ShortName, n.LongName, string(n.Type), n.Floor, n.Building, n.X, n.Y, n.CreatedAt, n.UpdatedAt)
	case storage.OpDeleteNode:
		q.Queue(`
			WITH gone AS (DELETE FROM nav_nodes WHERE id = $1)
			INSERT INTO nav_retired_ids (kind, id) VALUES ($2, $1) ON CONFLICT DO NOTHING
		`, string(op.NodeID), retiredNode)
	case storage.OpCreateEdge, storage.OpUpdateEdge:
		e := op.Edge
		q.Queue(`
			INSERT INTO nav_edges (id, node_a, node_b, weight, cost, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				weight = EXCLUDED.weight,
				cost = EXCLUDED.cost
		`, string(e.ID), string(e.NodeA), string(e.NodeB), e.Weight, e.Cost, e.CreatedAt)
	case storage.OpDeleteEdge:
		q.Queue(`
			WITH gone AS (DELETE FROM nav_edges WHERE id = $1)
			INSERT INTO nav_retired_ids (kind, id) VALUES ($2, $1) ON CONFLICT DO NOTHING
		`, string(op.EdgeID), retiredEdge)
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	return nil
}
