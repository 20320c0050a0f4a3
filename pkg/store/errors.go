package store

import (
	"errors"
	"fmt"

	"github.com/blobpool/blobpool/pkg/lease"
)

// Errors returned by the store facade.
var (
	// ErrStoreLocked is returned by Open when another process (or another
	// handle in this process) already holds the store directory.
	ErrStoreLocked = errors.New("store directory locked by another process")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidName is returned when a record name is empty.
	ErrInvalidName = errors.New("record name is empty")
)

// CorruptionError reports that a record read back from its container does
// not match the digest recorded at write time. The frame checksum already
// guards single frames; the digest additionally catches index entries that
// point at the wrong frame.
type CorruptionError struct {
	Name   string
	Blob   lease.BlobID
	Offset uint64
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("record %q in blob %d at offset %d: digest mismatch",
		e.Name, e.Blob, e.Offset)
}
