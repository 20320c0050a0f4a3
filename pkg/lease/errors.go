package lease

import "errors"

// Errors returned by the blob lease manager.
var (
	// ErrInvalidArgument is returned by New and NewWithOffsets when a
	// construction parameter is out of range, such as an initial blob
	// count below one. No manager is produced when this occurs.
	ErrInvalidArgument = errors.New("invalid blob manager argument")

	// ErrCapacityExceeded is returned by Acquire when every blob is either
	// leased or full and the table has already reached its configured
	// ceiling. The condition is recoverable: the caller may retry after a
	// release (see AcquireWait) or surface it upward as a store-full error.
	// Blob records are left untouched when this occurs.
	ErrCapacityExceeded = errors.New("blob capacity exceeded")
)
