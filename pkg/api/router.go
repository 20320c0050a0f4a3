package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/pkg/store"
)

// NewRouter builds the chi router for the admin API.
//
// Every request passes through request-ID tagging, real-IP extraction,
// structured request logging, and panic recovery.
//
// Request timeouts are applied per route group rather than globally:
// health and read routes get cfg.RequestTimeout, while POST /v1/archive
// gets cfg.ArchiveTimeout because an archive run uploads whole blob
// containers and can legitimately take minutes.
//
// Routes:
//   - GET  /health       - Liveness probe
//   - GET  /health/ready - Readiness probe
//   - GET  /v1/status    - Store statistics
//   - GET  /v1/blobs     - Per-blob allocation state
//   - POST /v1/archive   - Trigger a synchronous archive run
func NewRouter(st *store.Store, arc Archiver, cfg APIConfig) http.Handler {
	cfg.applyDefaults()

	r := chi.NewRouter()

	// Ordering: the logger must run inside RequestID to see the ID,
	// and Recoverer inside the logger so panics still produce a line.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	h := &handlers{store: st, archiver: arc}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.health)
			r.Get("/ready", h.ready)
		})

		r.Route("/v1", func(r chi.Router) {
			r.Get("/status", h.status)
			r.Get("/blobs", h.blobs)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.ArchiveTimeout))

		r.Post("/v1/archive", h.archiveRun)
	})

	// Bare GET / lands on the liveness probe.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger emits one structured log line per request. Health
// probes complete at DEBUG so a scraping orchestrator does not flood
// the log.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())

		logger.Debug("Request started",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log := logger.Info
		if isHealthPath(r.URL.Path) {
			log = logger.Debug
		}
		log("Request finished",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"response_bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
