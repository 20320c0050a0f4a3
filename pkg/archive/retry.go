package archive

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/aws/smithy-go"
)

// retryConfig holds the exponential backoff settings for uploads.
type retryConfig struct {
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
}

// backoff returns the wait before retry number attempt (0-based).
func (r retryConfig) backoff(attempt int) time.Duration {
	d := float64(r.initialBackoff)
	for i := 0; i < attempt; i++ {
		d *= r.backoffMultiplier
	}
	if d > float64(r.maxBackoff) {
		d = float64(r.maxBackoff)
	}
	return time.Duration(d)
}

// isRetryableError reports whether an upload error is transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are the caller giving up, never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown":
			return true
		case "InternalError", "ServiceUnavailable":
			return true
		case "NoSuchBucket", "NotFound", "AccessDenied", "Forbidden", "InvalidRequest":
			return false
		}
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout")
}
