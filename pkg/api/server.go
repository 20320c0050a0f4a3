package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/pkg/store"
)

// shutdownGrace bounds how long a cancelled server waits for in-flight
// requests before giving up.
const shutdownGrace = 5 * time.Second

// Server is the HTTP admin API for a running store.
//
// Endpoints:
//   - GET  /health: Liveness probe
//   - GET  /health/ready: Readiness probe
//   - GET  /v1/status: Store statistics
//   - GET  /v1/blobs: Per-blob allocation state
//   - POST /v1/archive: Trigger a synchronous archive run
//
// A Server is created stopped; Start serves until its context is
// cancelled, then drains in-flight requests before returning.
type Server struct {
	server       *http.Server
	store        *store.Store
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer assembles the admin API around an open store.
//
// Missing config values are filled with defaults so a Server built
// directly in tests behaves like one built from a loaded config file.
//
// The http.Server's write timeout is deliberately left unset: archive
// runs can take as long as the slowest blob upload and are bounded per
// route instead (see NewRouter).
//
// arc may be nil when archival is not configured; the archive endpoint
// then rejects requests.
func NewServer(config APIConfig, st *store.Store, arc Archiver) *Server {
	config.applyDefaults()

	return &Server{
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", config.Port),
			Handler:     NewRouter(st, arc, config),
			ReadTimeout: config.ReadTimeout,
			IdleTimeout: config.IdleTimeout,
		},
		store:  st,
		config: config,
	}
}

// Start runs the server until ctx is cancelled or the listener fails.
//
// On cancellation it hands off to Stop with a fresh timeout context
// (the cancelled ctx would abort the drain immediately) and returns
// Stop's result. A listener failure is returned as is.
func (s *Server) Start(ctx context.Context) error {
	failed := make(chan error, 1)
	go func() {
		logger.Info("Admin API listening", "port", s.config.Port)
		base := fmt.Sprintf("http://localhost:%d", s.config.Port)
		logger.Debug("Admin API routes",
			"health", base+"/health",
			"status", base+"/v1/status",
			"blobs", base+"/v1/blobs",
		)

		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Admin API draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-failed:
		return fmt.Errorf("admin API listener failed: %w", err)
	}
}

// Stop drains in-flight requests and closes the listener. It is safe
// to call more than once and concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Admin API shutdown started")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin API shutdown: %w", err)
			logger.Error("Admin API shutdown failed", "error", err)
			return
		}
		logger.Info("Admin API stopped")
	})
	return shutdownErr
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.config.Port
}
