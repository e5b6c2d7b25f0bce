// Package pgstore persists the navigation graph in PostgreSQL.
//
// Nodes and edges live in their own tables keyed by ID, with edges holding
// foreign keys to both endpoints. Each committed batch is applied in a single
// SQL transaction, so the tables always match some committed graph version.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// Options tune the connection pool.
type Options struct {
	MaxConns int32
	MinConns int32
	// OpTimeout bounds each Load or Persist call.
	OpTimeout time.Duration
	Logger    logging.Logger
}

// Store is a storage.Persister backed by PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	opTimeout time.Duration
	logger    logging.Logger
}

var _ storage.Persister = (*Store)(nil)

// Open connects to databaseURL and creates the schema if needed.
func Open(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &Store{
		pool:      pool,
		opTimeout: opts.OpTimeout,
		logger:    opts.Logger,
	}
	if s.opTimeout <= 0 {
		s.opTimeout = 30 * time.Second
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.With(logging.Component("pgstore"))

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
