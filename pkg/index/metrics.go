package index

// Metrics receives index size observations. Implementations must be safe
// for concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// RecordSize records the on-disk footprint of the index. Backends
	// without a disk footprint report zeros.
	RecordSize(lsm int64, vlog int64)
}
