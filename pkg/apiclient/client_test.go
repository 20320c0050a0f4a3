package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// respond writes a server-style response envelope.
func respond(w http.ResponseWriter, code int, status string, data any, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"data":      data,
		"error":     errMsg,
	})
}

func TestNew(t *testing.T) {
	client := New("http://localhost:9090")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:9090", client.baseURL)
}

func TestWithTimeout(t *testing.T) {
	client := New("http://localhost:9090")
	long := client.WithTimeout(10 * time.Minute)

	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 10*time.Minute, long.httpClient.Timeout)
	assert.Equal(t, client.baseURL, long.baseURL)
}

func TestDoUnwrapsEnvelope(t *testing.T) {
	type payload struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		respond(w, http.StatusOK, "ok", payload{Message: "pong"}, "")
	}))
	defer server.Close()

	client := New(server.URL)

	var resp payload
	err := client.get("/ping", &resp)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Message)
}

func TestDoWithAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusServiceUnavailable, "error", nil, "archival not configured")
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.get("/ping", nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "archival not configured", apiErr.Message)
	assert.True(t, apiErr.IsUnavailable())
	assert.Contains(t, apiErr.Error(), "503")
}

func TestDoWithNonEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.get("/ping", nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream exploded")
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		respond(w, http.StatusOK, "healthy", map[string]string{"service": "blobpool"}, "")
	}))
	defer server.Close()

	resp, err := New(server.URL).Health()
	require.NoError(t, err)
	assert.Equal(t, "blobpool", resp.Service)
}

func TestReady_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusServiceUnavailable, "unhealthy", nil, "store not open")
	}))
	defer server.Close()

	_, err := New(server.URL).Ready()
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnavailable())
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/status", r.URL.Path)
		respond(w, http.StatusOK, "ok", map[string]any{
			"store_id":      "d3adbeef",
			"records":       12,
			"blobs":         3,
			"sealed_blobs":  1,
			"total_bytes":   4096,
			"max_blob_size": 1048576,
			"max_blobs":     8,
			"uptime":        "1m30s",
			"uptime_sec":    90,
		}, "")
	}))
	defer server.Close()

	resp, err := New(server.URL).Status()
	require.NoError(t, err)
	assert.Equal(t, "d3adbeef", resp.StoreID)
	assert.Equal(t, 12, resp.Records)
	assert.Equal(t, 3, resp.Blobs)
	assert.Equal(t, 1, resp.SealedBlobs)
	assert.Equal(t, uint64(4096), resp.TotalBytes)
	assert.Equal(t, "1m30s", resp.Uptime)
	assert.Equal(t, int64(90), resp.UptimeSec)
}

func TestBlobs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/blobs", r.URL.Path)
		respond(w, http.StatusOK, "ok", map[string]any{
			"blobs": []map[string]any{
				{"id": 0, "locked": false, "write_offset": 1048576, "sealed": true, "archived": true},
				{"id": 1, "locked": true, "write_offset": 512, "sealed": false, "archived": false},
			},
			"count": 2,
		}, "")
	}))
	defer server.Close()

	resp, err := New(server.URL).Blobs()
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Blobs, 2)
	assert.True(t, resp.Blobs[0].Sealed)
	assert.True(t, resp.Blobs[0].Archived)
	assert.True(t, resp.Blobs[1].Locked)
	assert.Equal(t, uint64(512), resp.Blobs[1].WriteOffset)
}

func TestArchive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/archive", r.URL.Path)
		respond(w, http.StatusOK, "ok", map[string]any{
			"uploaded": []int{0, 2},
			"skipped":  1,
		}, "")
	}))
	defer server.Close()

	resp, err := New(server.URL).WithTimeout(time.Minute).Archive()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, resp.Uploaded)
	assert.Equal(t, 1, resp.Skipped)
}
