package pgstore

import "context"

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS nav_nodes (
		id TEXT PRIMARY KEY,
		short_name TEXT NOT NULL,
		long_name TEXT NOT NULL,
		node_type TEXT NOT NULL,
		floor TEXT NOT NULL,
		building TEXT NOT NULL,
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nav_edges (
		id TEXT PRIMARY KEY,
		node_a TEXT NOT NULL REFERENCES nav_nodes(id),
		node_b TEXT NOT NULL REFERENCES nav_nodes(id),
		weight DOUBLE PRECISION,
		cost DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		CHECK (node_a <> node_b)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_nav_edges_pair
		ON nav_edges (LEAST(node_a, node_b), GREATEST(node_a, node_b));
	CREATE INDEX IF NOT EXISTS idx_nav_edges_node_a ON nav_edges(node_a);
	CREATE INDEX IF NOT EXISTS idx_nav_edges_node_b ON nav_edges(node_b);

	CREATE TABLE IF NOT EXISTS nav_retired_ids (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	);

	CREATE TABLE IF NOT EXISTS nav_meta (
		id INT PRIMARY KEY CHECK (id = 1),
		version BIGINT NOT NULL,
		next_node_seq BIGINT NOT NULL,
		next_edge_seq BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	INSERT INTO nav_meta (id, version, next_node_seq, next_edge_seq, updated_at)
	VALUES (1, 0, 0, 0, now())
	ON CONFLICT (id) DO NOTHING;
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
