package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Load reads the whole graph as a snapshot. The tables always hold the latest
// committed version, so there are never batches to replay.
func (s *Store) Load() (*storage.Snapshot, []*storage.Batch, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin load: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := &storage.Snapshot{TakenAt: time.Now()}
	err = tx.QueryRow(ctx, `SELECT version, next_node_seq, next_edge_seq FROM nav_meta WHERE id = 1`).
		Scan(&snap.Version, &snap.NextNodeSeq, &snap.NextEdgeSeq)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read graph metadata: %w", err)
	}

	if snap.Nodes, err = loadNodes(ctx, tx); err != nil {
		return nil, nil, err
	}
	if snap.Edges, err = loadEdges(ctx, tx); err != nil {
		return nil, nil, err
	}
	if err := loadRetired(ctx, tx, snap); err != nil {
		return nil, nil, err
	}

	s.logger.Info("graph loaded",
		logging.GraphVersion(snap.Version),
		logging.Int("nodes", len(snap.Nodes)),
		logging.Int("edges", len(snap.Edges)))
	if snap.Version == 0 && len(snap.Nodes) == 0 {
		return nil, nil, nil
	}
	return snap, nil, nil
}

func loadNodes(ctx context.Context, tx pgx.Tx) ([]*storage.Node, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, short_name, long_name, node_type, floor, building, x, y, created_at, updated_at
		FROM nav_nodes
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*storage.Node
	for rows.Next() {
		n := &storage.Node{}
		if err := rows.Scan(&n.ID, &n.ShortName, &n.LongName, &n.Type, &n.Floor, &n.Building,
			&n.X, &n.Y, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func loadEdges(ctx context.Context, tx pgx.Tx) ([]*storage.Edge, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, node_a, node_b, weight, cost, created_at
		FROM nav_edges
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []*storage.Edge
	for rows.Next() {
		e := &storage.Edge{}
		if err := rows.Scan(&e.ID, &e.NodeA, &e.NodeB, &e.Weight, &e.Cost, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func loadRetired(ctx context.Context, tx pgx.Tx, snap *storage.Snapshot) error {
	rows, err := tx.Query(ctx, `SELECT kind, id FROM nav_retired_ids ORDER BY kind, id`)
	if err != nil {
		return fmt.Errorf("failed to query retired ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return fmt.Errorf("failed to scan retired id: %w", err)
		}
		switch kind {
		case retiredNode:
			snap.RetiredNodes = append(snap.RetiredNodes, storage.NodeID(id))
		case retiredEdge:
			snap.RetiredEdges = append(snap.RetiredEdges, storage.EdgeID(id))
		default:
			return fmt.Errorf("unknown retired id kind %q", kind)
		}
	}
	return rows.Err()
}
