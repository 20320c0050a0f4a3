package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blobpool/blobpool/internal/logger"
)

const shutdownGrace = 5 * time.Second

// Server exposes the metrics registry over HTTP on its own port,
// separate from the admin API.
//
// Endpoints:
//   - GET /metrics: Prometheus exposition format
type Server struct {
	server       *http.Server
	port         int
	shutdownOnce sync.Once
}

// NewServer creates a metrics HTTP server for the process-wide
// registry. Returns nil when metrics are disabled (InitRegistry not
// called).
func NewServer(port int) *Server {
	reg := GetRegistry()
	if reg == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	}))

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		port: port,
	}
}

// Start serves the exposition endpoint until ctx is cancelled or the
// listener fails. Cancellation drains in-flight scrapes before
// returning.
func (s *Server) Start(ctx context.Context) error {
	failed := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", "port", s.port)

		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-failed:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the listener down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			return
		}
		logger.Info("Metrics server stopped gracefully")
	})
	return shutdownErr
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.port
}
