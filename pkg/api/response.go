package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope every API endpoint replies with. Status is
// one of "ok", "healthy", "unhealthy" or "error"; Data carries the
// payload on success and Error the detail on failure.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func newResponse(status string, data any, errMsg string) Response {
	return Response{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Error:     errMsg,
	}
}

// JSON writes data as a JSON body with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Last resort; the header is already gone.
		http.Error(w, `{"status":"error","error":"response encoding failed"}`, http.StatusInternalServerError)
	}
}

// OKResponse wraps data in a generic success envelope.
func OKResponse(data any) Response {
	return newResponse("ok", data, "")
}

// ErrorResponse builds a generic failure envelope.
func ErrorResponse(errMsg string) Response {
	return newResponse("error", nil, errMsg)
}

// HealthyResponse builds a passing health probe envelope.
func HealthyResponse(data any) Response {
	return newResponse("healthy", data, "")
}

// UnhealthyResponse builds a failing health probe envelope.
func UnhealthyResponse(errMsg string) Response {
	return newResponse("unhealthy", nil, errMsg)
}
