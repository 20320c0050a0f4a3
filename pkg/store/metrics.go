package store

import "time"

// Metrics receives store operation observations. Implementations must be
// safe for concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// ObservePut records a completed write with the uncompressed and
	// stored payload sizes, the codec used, and the total duration
	// including lease acquisition.
	ObservePut(bytes int64, stored int64, codec string, duration time.Duration)

	// ObserveGet records a completed read with the payload size.
	ObserveGet(bytes int64, duration time.Duration)

	// ObserveVerifyFailure records a digest mismatch detected on read.
	ObserveVerifyFailure()

	// RecordRecords records the current number of indexed records.
	RecordRecords(count int)
}
