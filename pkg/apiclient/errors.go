package apiclient

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx server reply, decoded from the response envelope
// when possible and carried as raw text otherwise.
type APIError struct {
	StatusCode int    `json:"-"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// IsUnavailable returns true if the server refused the request because a
// dependency is not ready or not configured.
func (e *APIError) IsUnavailable() bool {
	return e.StatusCode == 503
}

// IsNotFound returns true if the requested resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnavailable reports whether err is an API error with status 503.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnavailable()
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}
