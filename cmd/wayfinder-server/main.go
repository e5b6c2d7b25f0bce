// Command wayfinder-server serves the hospital wayfinding API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/api"
	"github.com/dd0wney/cluso-wayfinder/pkg/changefeed"
	"github.com/dd0wney/cluso-wayfinder/pkg/config"
	"github.com/dd0wney/cluso-wayfinder/pkg/graphql"
	"github.com/dd0wney/cluso-wayfinder/pkg/health"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/metrics"
	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/pubsub"
	"github.com/dd0wney/cluso-wayfinder/pkg/server"
)

var version = "dev"

// memoryLimit is the heap size above which the memory check degrades.
const memoryLimit = 1 << 30

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	backend := flag.String("storage", "", "Storage backend: memory, wal or postgres (overrides config)")
	dataDir := flag.String("data", "", "Data directory for the wal backend (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (overrides config)")
	var seeds stringList
	flag.Var(&seeds, "seed", "Floor plan file or directory to import into an empty graph (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = applyFlags(cfg, *port, *backend, *dataDir, *logLevel, seeds)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wayfinder-server: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logging.SetDefaultLogger(logger)

	if err := run(context.Background(), cfg, *configPath, logger); err != nil {
		logger.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}

// applyFlags lets explicit flags win over the file and environment.
func applyFlags(cfg *config.Config, port int, backend, dataDir, level string, seeds []string) error {
	if port != 0 {
		cfg.Server.Port = port
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if len(seeds) > 0 {
		cfg.Graph.SeedPlans = seeds
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, configPath string, logger *logging.JSONLogger) error {
	startedAt := time.Now()
	logger.Info("wayfinder server starting",
		logging.String("version", version),
		logging.String("storage", cfg.Storage.Backend),
		logging.String("addr", cfg.Addr()))

	reg := metrics.NewRegistry()
	hc := health.NewHealthChecker()

	store, err := openBackend(ctx, cfg, logger, hc)
	if err != nil {
		return err
	}

	bus := pubsub.NewPubSub()
	mutations := mutation.NewService(store, mutation.Config{
		DeletePolicy: cfg.DeletePolicy(),
		Logger:       logger,
		Metrics:      reg,
		Events:       bus,
	})
	finder := pathfinder.NewService(store, pathfinder.Config{Logger: logger, Metrics: reg})

	if err := seedGraph(ctx, store, mutations, cfg.Graph.SeedPlans, logger); err != nil {
		store.Close()
		return err
	}
	st := store.Stats()
	reg.SetGraphSize(st.NodeCount, st.EdgeCount, st.Version)
	reg.SetBuildInfo(version, cfg.Storage.Backend)

	var feed *changefeed.Broadcaster
	if cfg.Changefeed.Enabled {
		feed, err = changefeed.NewBroadcaster(bus, changefeed.Config{Address: cfg.Changefeed.Address, Logger: logger})
		if err == nil {
			err = feed.Start()
		}
		if err != nil {
			store.Close()
			return fmt.Errorf("changefeed: %w", err)
		}
	}

	hc.RegisterCheck("graph", health.GraphCheck(store))
	hc.RegisterCheck("connectivity", health.ConnectivityCheck(store))
	hc.RegisterCheck("memory", health.MemoryCheck(memoryLimit))
	hc.RegisterReadinessCheck("graph", health.GraphCheck(store))
	hc.RegisterLivenessCheck("process", health.SimpleCheck("process"))

	schema, err := graphql.NewSchema(graphql.Services{Store: store, Mutations: mutations, Pathfinder: finder})
	if err != nil {
		store.Close()
		return fmt.Errorf("graphql schema: %w", err)
	}

	srv, err := api.NewServer(api.Config{
		Addr:            cfg.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
	}, api.Options{
		Store:      store,
		Mutations:  mutations,
		Pathfinder: finder,
		Health:     hc,
		GraphQL:    graphql.NewGraphQLHandler(schema, graphql.Config{MaxDepth: graphql.DefaultMaxDepth, Logger: logger}),
		Metrics:    reg,
		Logger:     logger,
		Version:    version,
	})
	if err != nil {
		store.Close()
		return err
	}

	gs := server.NewGracefulServer(srv, server.Config{
		// Hooks share the budget with draining HTTP.
		ShutdownTimeout: 2 * cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
	gs.OnShutdown("store", func(context.Context) error { return store.Close() })
	if cfg.Storage.CheckpointOnShutdown {
		gs.OnShutdown("checkpoint", func(context.Context) error {
			err := store.Checkpoint()
			reg.RecordCheckpoint(err)
			return err
		})
	}
	gs.OnShutdown("events", func(context.Context) error {
		bus.Shutdown()
		return nil
	})
	if feed != nil {
		gs.OnShutdown("changefeed", func(context.Context) error { return feed.Stop() })
	}

	stopSystemMetrics := make(chan struct{})
	go reportSystemMetrics(reg, startedAt, stopSystemMetrics)
	gs.OnShutdown("system_metrics", func(context.Context) error {
		close(stopSystemMetrics)
		return nil
	})

	gs.SetConfigReloadFunc(func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.SetLevel(logging.ParseLevel(next.Logging.Level))
		logger.Info("log level updated", logging.String("level", next.Logging.Level))
		return nil
	})

	return gs.Run(ctx)
}

func reportSystemMetrics(reg *metrics.Registry, startedAt time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	reg.UpdateSystemMetrics(startedAt)
	for {
		select {
		case <-ticker.C:
			reg.UpdateSystemMetrics(startedAt)
		case <-stop:
			return
		}
	}
}
