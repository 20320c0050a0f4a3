package archive

import "time"

// Metrics receives archival observations. Implementations must be safe
// for concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// ObserveUpload records a completed blob upload.
	ObserveUpload(bytes int64, duration time.Duration)

	// ObserveSkip records a blob skipped because it was already
	// archived.
	ObserveSkip()

	// ObserveFailure records a failed upload attempt.
	ObserveFailure()
}
