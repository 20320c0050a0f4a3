package lease

import "time"

// Acquire outcomes reported to Metrics.ObserveAcquire.
const (
	// AcquireGranted means an existing blob was leased.
	AcquireGranted = "granted"

	// AcquireGrown means no existing blob was eligible and the table grew
	// by one record to satisfy the lease.
	AcquireGrown = "grown"

	// AcquireExhausted means every blob was locked or sealed and the table
	// was at its ceiling.
	AcquireExhausted = "exhausted"
)

// Metrics receives lease manager instrumentation. Implementations must be
// safe for concurrent use. The Prometheus implementation lives in
// pkg/metrics/prometheus; a nil Metrics disables collection entirely.
type Metrics interface {
	// ObserveAcquire records one acquire attempt with its outcome, the
	// caller's advisory size hint, and the time spent (including any
	// AcquireWait blocking).
	ObserveAcquire(outcome string, sizeHint uint64, duration time.Duration)

	// ObserveRelease records one lease release.
	ObserveRelease(duration time.Duration)

	// RecordBlobs records the current size of the blob table.
	RecordBlobs(count int)
}
