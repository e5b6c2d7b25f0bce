package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/config"
	"github.com/dd0wney/cluso-wayfinder/pkg/floorplan"
	"github.com/dd0wney/cluso-wayfinder/pkg/health"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pgstore"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// openBackend opens the store over the configured persister. The postgres
// backend also registers a database health check.
func openBackend(ctx context.Context, cfg *config.Config, logger logging.Logger, hc *health.HealthChecker) (*storage.Store, error) {
	var persister storage.Persister
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage; edits are lost on restart")
	case config.BackendWAL:
		p, err := storage.NewWALPersister(cfg.Storage.DataDir, storage.WALOptions{
			Compress: cfg.Storage.CompressWAL,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		persister = p
	case config.BackendPostgres:
		openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		p, err := pgstore.Open(openCtx, cfg.Storage.DatabaseURL, pgstore.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		hc.RegisterCheck("database", health.DatabaseCheck(p.Ping, 2*time.Second))
		hc.RegisterReadinessCheck("database", health.DatabaseCheck(p.Ping, 2*time.Second))
		persister = p
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	store, err := storage.Open(storage.Config{Persister: persister, Logger: logger})
	if err != nil {
		if persister != nil {
			persister.Close()
		}
		return nil, err
	}
	return store, nil
}

// seedGraph imports the seed plans, but only into an empty graph so restarts
// do not collide with what is already there.
func seedGraph(ctx context.Context, store *storage.Store, mutations *mutation.Service, paths []string, logger logging.Logger) error {
	if len(paths) == 0 {
		return nil
	}
	if store.NodeCount() > 0 {
		logger.Info("graph already populated; skipping seed plans", logging.Count(store.NodeCount()))
		return nil
	}

	plan := &floorplan.Plan{}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("seed plan: %w", err)
		}
		var p *floorplan.Plan
		if info.IsDir() {
			p, err = floorplan.LoadDir(path)
		} else {
			p, err = floorplan.LoadFile(path)
		}
		if err != nil {
			return fmt.Errorf("seed plan: %w", err)
		}
		plan.Merge(p)
	}

	if _, err := mutations.ImportPlan(ctx, plan); err != nil {
		return fmt.Errorf("seed plan: %w", err)
	}
	return nil
}
