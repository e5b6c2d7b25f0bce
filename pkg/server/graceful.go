// Package server runs the wayfinder process: it serves HTTP until asked to
// stop, reloads settings on SIGHUP and tears collaborators down in order.
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
)

// ConfigReloadFunc is a function that reloads configuration
type ConfigReloadFunc func() error

// HTTPServer is the part of api.Server the lifecycle drives. Start blocks and
// returns nil once Shutdown has been called.
type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Config tunes a GracefulServer.
type Config struct {
	// ShutdownTimeout bounds the whole shutdown, hooks included.
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

type shutdownHook struct {
	name string
	fn   func(context.Context) error
}

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server  HTTPServer
	timeout time.Duration
	logger  logging.Logger

	hooksMu sync.Mutex
	hooks   []shutdownHook

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	configReloadFn ConfigReloadFunc
	configMu       sync.RWMutex

	// notified is closed once Run is receiving signals.
	notified chan struct{}
}

// NewGracefulServer creates a new graceful server around srv.
func NewGracefulServer(srv HTTPServer, cfg Config) *GracefulServer {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		server:     srv,
		timeout:    cfg.ShutdownTimeout,
		logger:     logger.With(logging.Component("lifecycle")),
		shutdownCh: make(chan struct{}),
		notified:   make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server has drained. Hooks run
// in reverse registration order, so register the store before what uses it.
func (gs *GracefulServer) OnShutdown(name string, fn func(context.Context) error) {
	gs.hooksMu.Lock()
	defer gs.hooksMu.Unlock()
	gs.hooks = append(gs.hooks, shutdownHook{name: name, fn: fn})
}

// Run serves until ctx is done, SIGINT or SIGTERM arrives, Shutdown is called
// or the listener fails, and then shuts down. SIGHUP reloads configuration.
func (gs *GracefulServer) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	close(gs.notified)

	errCh := make(chan error, 1)
	go func() { errCh <- gs.server.Start() }()
	gs.logger.Info("server running")

	for {
		select {
		case err := <-errCh:
			if err != nil {
				gs.logger.Error("server failed", logging.Error(err))
				return errors.Join(err, gs.Shutdown())
			}
			return gs.Shutdown()
		case <-ctx.Done():
			return gs.Shutdown()
		case <-gs.shutdownCh:
			return gs.Shutdown()
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				_ = gs.ReloadConfig()
				continue
			}
			gs.logger.Info("received signal, starting graceful shutdown", logging.String("signal", sig.String()))
			return gs.Shutdown()
		}
	}
}

// Shutdown drains the HTTP server and runs the shutdown hooks. Only the first
// call does the work; every call returns its result.
func (gs *GracefulServer) Shutdown() error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
		defer cancel()

		timer := logging.StartTimer(gs.logger, "shutdown complete")
		var errs []error
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("http shutdown failed", logging.Error(err))
			errs = append(errs, err)
		}

		gs.hooksMu.Lock()
		hooks := append([]shutdownHook(nil), gs.hooks...)
		gs.hooksMu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			if err := h.fn(ctx); err != nil {
				gs.logger.Error("shutdown hook failed", logging.String("hook", h.name), logging.Error(err))
				errs = append(errs, err)
			}
		}
		timer.End()
		gs.shutdownErr = errors.Join(errs...)
	})
	return gs.shutdownErr
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function to call when configuration reload is triggered
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig triggers a configuration reload
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Info("configuration reload requested, but no reload function configured")
		return nil
	}

	if err := reloadFn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}
	gs.logger.Info("configuration reloaded")
	return nil
}
