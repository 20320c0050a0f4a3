package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blobpool/blobpool/pkg/archive"
	"github.com/blobpool/blobpool/pkg/lease"
	"github.com/blobpool/blobpool/pkg/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), store.Config{
		Path:          t.TempDir(),
		MaxBlobSizeMB: 1,
		InitialBlobs:  2,
		MaxBlobs:      4,
		IndexBackend:  store.IndexMemory,
	})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type fakeArchiver struct {
	result archive.Result
	err    error
	calls  int
}

func (f *fakeArchiver) Archive(ctx context.Context) (archive.Result, error) {
	f.calls++
	return f.result, f.err
}

func doRequest(t *testing.T, router http.Handler, method, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return w, resp
}

func TestHealth_ReturnsOK(t *testing.T) {
	router := NewRouter(newTestStore(t), nil, APIConfig{})

	w, resp := doRequest(t, router, "GET", "/health")

	if w.Code != http.StatusOK {
		t.Errorf("Expected HTTP %d, got %d", http.StatusOK, w.Code)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected %q envelope, got %q", "healthy", resp.Status)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data is %T, want a map", resp.Data)
	}
	if data["service"] != "blobpool" {
		t.Errorf("Expected service 'blobpool', got '%s'", data["service"])
	}
}

func TestReady_NoStore_Returns503(t *testing.T) {
	h := &handlers{store: nil}
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	h.ready(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected HTTP %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Expected %q envelope, got %q", "unhealthy", resp.Status)
	}
	if resp.Error != "store not open" {
		t.Errorf("Expected error 'store not open', got '%s'", resp.Error)
	}
}

func TestReady_WithStore_ReturnsOK(t *testing.T) {
	router := NewRouter(newTestStore(t), nil, APIConfig{})

	w, resp := doRequest(t, router, "GET", "/health/ready")

	if w.Code != http.StatusOK {
		t.Errorf("Expected HTTP %d, got %d", http.StatusOK, w.Code)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected %q envelope, got %q", "healthy", resp.Status)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data is %T, want a map", resp.Data)
	}
	if data["blobs"].(float64) != 2 {
		t.Errorf("Expected 2 blobs, got %v", data["blobs"])
	}
	if data["records"].(float64) != 0 {
		t.Errorf("Expected 0 records, got %v", data["records"])
	}
}

func TestStatus_ReportsStoreState(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if err := st.Put(ctx, "alpha", []byte("first record")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := st.Put(ctx, "beta", []byte("second record")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	router := NewRouter(st, nil, APIConfig{})
	w, resp := doRequest(t, router, "GET", "/v1/status")

	if w.Code != http.StatusOK {
		t.Errorf("Expected HTTP %d, got %d", http.StatusOK, w.Code)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected %q envelope, got %q", "ok", resp.Status)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data is %T, want a map", resp.Data)
	}
	if data["store_id"] == "" {
		t.Error("Expected store_id to be set")
	}
	if data["records"].(float64) != 2 {
		t.Errorf("Expected 2 records, got %v", data["records"])
	}
	if data["blobs"].(float64) != 2 {
		t.Errorf("Expected 2 blobs, got %v", data["blobs"])
	}
	if data["max_blobs"].(float64) != 4 {
		t.Errorf("Expected max_blobs 4, got %v", data["max_blobs"])
	}
	if data["max_blob_size"].(float64) != 1024*1024 {
		t.Errorf("Expected max_blob_size 1MiB, got %v", data["max_blob_size"])
	}
	if data["total_bytes"].(float64) == 0 {
		t.Error("Expected total_bytes > 0 after writes")
	}
}

func TestBlobs_ListsAllocationState(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if err := st.Put(ctx, "alpha", []byte("payload")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	router := NewRouter(st, nil, APIConfig{})
	w, resp := doRequest(t, router, "GET", "/v1/blobs")

	if w.Code != http.StatusOK {
		t.Errorf("Expected HTTP %d, got %d", http.StatusOK, w.Code)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data is %T, want a map", resp.Data)
	}
	if data["count"].(float64) != 2 {
		t.Errorf("Expected count 2, got %v", data["count"])
	}

	blobs, ok := data["blobs"].([]interface{})
	if !ok {
		t.Fatalf("Expected blobs to be an array")
	}
	if len(blobs) != 2 {
		t.Fatalf("Expected 2 blobs, got %d", len(blobs))
	}

	var written float64
	for i, raw := range blobs {
		b := raw.(map[string]any)
		if b["id"].(float64) != float64(i) {
			t.Errorf("Expected blob id %d, got %v", i, b["id"])
		}
		if b["locked"].(bool) {
			t.Errorf("Expected blob %d to be unlocked", i)
		}
		if b["archived"].(bool) {
			t.Errorf("Expected blob %d to be unarchived", i)
		}
		written += b["write_offset"].(float64)
	}
	if written == 0 {
		t.Error("Expected a nonzero write offset after a put")
	}
}

func TestBlobs_ReportsArchivedMarks(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	mark, _ := json.Marshal(map[string]string{"key": "blobpool/blob-00000.dat"})
	if err := st.Index().SetMark(ctx, archive.MarkKey(0), mark); err != nil {
		t.Fatalf("SetMark failed: %v", err)
	}

	router := NewRouter(st, nil, APIConfig{})
	_, resp := doRequest(t, router, "GET", "/v1/blobs")

	data := resp.Data.(map[string]any)
	blobs := data["blobs"].([]interface{})

	first := blobs[0].(map[string]any)
	if !first["archived"].(bool) {
		t.Error("Expected blob 0 to be reported archived")
	}
	second := blobs[1].(map[string]any)
	if second["archived"].(bool) {
		t.Error("Expected blob 1 to be reported unarchived")
	}
}

func TestArchive_NotConfigured_Returns503(t *testing.T) {
	router := NewRouter(newTestStore(t), nil, APIConfig{})

	w, resp := doRequest(t, router, "POST", "/v1/archive")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected HTTP %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	if resp.Error != "archival not configured" {
		t.Errorf("Expected error 'archival not configured', got '%s'", resp.Error)
	}
}

func TestArchive_RunsArchiver(t *testing.T) {
	arc := &fakeArchiver{result: archive.Result{
		Uploaded: []lease.BlobID{0, 2},
		Skipped:  1,
	}}
	router := NewRouter(newTestStore(t), arc, APIConfig{})

	w, resp := doRequest(t, router, "POST", "/v1/archive")

	if w.Code != http.StatusOK {
		t.Errorf("Expected HTTP %d, got %d", http.StatusOK, w.Code)
	}
	if arc.calls != 1 {
		t.Errorf("Expected 1 archiver call, got %d", arc.calls)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data is %T, want a map", resp.Data)
	}
	uploaded := data["uploaded"].([]interface{})
	if len(uploaded) != 2 {
		t.Errorf("Expected 2 uploaded blobs, got %d", len(uploaded))
	}
	if data["skipped"].(float64) != 1 {
		t.Errorf("Expected 1 skipped blob, got %v", data["skipped"])
	}
}

func TestArchive_Failure_Returns500(t *testing.T) {
	arc := &fakeArchiver{
		result: archive.Result{Uploaded: []lease.BlobID{1}},
		err:    errors.New("bucket unreachable"),
	}
	router := NewRouter(newTestStore(t), arc, APIConfig{})

	w, resp := doRequest(t, router, "POST", "/v1/archive")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected HTTP %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if resp.Status != "error" {
		t.Errorf("Expected %q envelope, got %q", "error", resp.Status)
	}
	if resp.Error != "bucket unreachable" {
		t.Errorf("Expected error 'bucket unreachable', got '%s'", resp.Error)
	}

	// Partial progress still comes back in the payload.
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Data is %T, want a map", resp.Data)
	}
	if len(data["uploaded"].([]interface{})) != 1 {
		t.Errorf("Expected partial uploads in payload, got %v", data["uploaded"])
	}
}

func TestRootRedirectsToHealth(t *testing.T) {
	router := NewRouter(newTestStore(t), nil, APIConfig{})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Errorf("Expected HTTP %d, got %d", http.StatusTemporaryRedirect, w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/health" {
		t.Errorf("Expected redirect to /health, got '%s'", loc)
	}
}

func TestAPIConfig_Defaults(t *testing.T) {
	var cfg APIConfig
	cfg.applyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.RequestTimeout == 0 || cfg.ArchiveTimeout == 0 {
		t.Error("Expected request and archive timeouts to default")
	}
	if cfg.ArchiveTimeout <= cfg.RequestTimeout {
		t.Error("Expected archive timeout to exceed request timeout")
	}
	if !cfg.IsEnabled() {
		t.Error("Expected API to be enabled by default")
	}

	disabled := false
	cfg.Enabled = &disabled
	if cfg.IsEnabled() {
		t.Error("Expected API to be disabled when Enabled is false")
	}
}

func TestNewServer_AppliesDefaults(t *testing.T) {
	srv := NewServer(APIConfig{}, newTestStore(t), nil)

	if srv.Port() != 8080 {
		t.Errorf("Expected default port 8080, got %d", srv.Port())
	}
}

func TestJSONWriter_SetsContentType(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, OKResponse(map[string]string{"k": "v"}))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got '%s'", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"status":"ok"`)) {
		t.Errorf("Expected ok envelope, got %s", w.Body.String())
	}
}
