package api

import (
	"context"
	"net/http"
	"time"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/pkg/archive"
	"github.com/blobpool/blobpool/pkg/store"
)

// Archiver triggers an archive run. *archive.Archiver satisfies it; tests
// substitute fakes. A nil Archiver means archival is not configured.
type Archiver interface {
	Archive(ctx context.Context) (archive.Result, error)
}

// handlers serves the admin endpoints against one open store.
type handlers struct {
	store    *store.Store
	archiver Archiver
}

// StatusData is the payload of GET /v1/status.
type StatusData struct {
	StoreID     string    `json:"store_id"`
	CreatedAt   time.Time `json:"created_at"`
	Records     int       `json:"records"`
	Blobs       int       `json:"blobs"`
	SealedBlobs int       `json:"sealed_blobs"`
	TotalBytes  uint64    `json:"total_bytes"`
	MaxBlobSize uint64    `json:"max_blob_size"`
	MaxBlobs    int       `json:"max_blobs"`
	Uptime      string    `json:"uptime"`
	UptimeSec   int64     `json:"uptime_sec"`
}

// BlobData is one blob's entry in the GET /v1/blobs payload.
type BlobData struct {
	ID          int    `json:"id"`
	Locked      bool   `json:"locked"`
	WriteOffset uint64 `json:"write_offset"`
	Sealed      bool   `json:"sealed"`
	Archived    bool   `json:"archived"`
}

// BlobsData is the payload of GET /v1/blobs.
type BlobsData struct {
	Blobs []BlobData `json:"blobs"`
	Count int        `json:"count"`
}

// health handles GET /health, the liveness probe. It succeeds whenever
// the HTTP server is responsive.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthyResponse(map[string]string{
		"service": "blobpool",
	}))
}

// ready handles GET /health/ready. The server is ready when the store is
// open and its index answers.
func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponse("store not open"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponse(err.Error()))
		return
	}

	JSON(w, http.StatusOK, HealthyResponse(map[string]any{
		"records": stats.Records,
		"blobs":   len(stats.Blobs),
	}))
}

// status handles GET /v1/status.
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}

	JSON(w, http.StatusOK, OKResponse(StatusData{
		StoreID:     stats.StoreID,
		CreatedAt:   stats.CreatedAt,
		Records:     stats.Records,
		Blobs:       len(stats.Blobs),
		SealedBlobs: stats.SealedBlobs,
		TotalBytes:  stats.TotalBytes,
		MaxBlobSize: stats.MaxBlobSize,
		MaxBlobs:    stats.MaxBlobs,
		Uptime:      stats.Uptime.Round(time.Second).String(),
		UptimeSec:   int64(stats.Uptime.Seconds()),
	}))
}

// blobs handles GET /v1/blobs, the per-blob allocation state with each
// blob's archived mark resolved.
func (h *handlers) blobs(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Snapshot()
	idx := h.store.Index()

	data := BlobsData{
		Blobs: make([]BlobData, 0, len(snapshot)),
		Count: len(snapshot),
	}
	for _, b := range snapshot {
		archived, err := archive.IsArchived(r.Context(), idx, b.ID)
		if err != nil {
			JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
			return
		}
		data.Blobs = append(data.Blobs, BlobData{
			ID:          int(b.ID),
			Locked:      b.Locked,
			WriteOffset: b.WriteOffset,
			Sealed:      b.Sealed,
			Archived:    archived,
		})
	}

	JSON(w, http.StatusOK, OKResponse(data))
}

// archiveRun handles POST /v1/archive. The run is synchronous; the
// response reports what was uploaded and what was already archived.
func (h *handlers) archiveRun(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		JSON(w, http.StatusServiceUnavailable, ErrorResponse("archival not configured"))
		return
	}

	result, err := h.archiver.Archive(r.Context())
	if err != nil {
		logger.Error("Archive run failed", "error", err)
		JSON(w, http.StatusInternalServerError, Response{
			Status:    "error",
			Timestamp: time.Now().UTC(),
			Data:      result,
			Error:     err.Error(),
		})
		return
	}

	JSON(w, http.StatusOK, OKResponse(result))
}
