package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "HTTP 404: gone", (&APIError{StatusCode: 404, Message: "gone"}).Error())
	assert.Equal(t, "just text", (&APIError{Message: "just text"}).Error())
}

func TestIsUnavailable(t *testing.T) {
	wrapped := fmt.Errorf("ready probe: %w", &APIError{
		StatusCode: http.StatusServiceUnavailable,
		Message:    "store not open",
	})

	assert.True(t, IsUnavailable(wrapped))
	assert.False(t, IsUnavailable(&APIError{StatusCode: http.StatusNotFound}))
	assert.False(t, IsUnavailable(errors.New("connection refused")))
	assert.False(t, IsUnavailable(nil))
}

func TestIsNotFound(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", &APIError{
		StatusCode: http.StatusNotFound,
		Message:    "no such record",
	})

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(&APIError{StatusCode: http.StatusServiceUnavailable}))
	assert.False(t, IsNotFound(nil))
}
