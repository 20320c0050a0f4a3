// Package index defines the record index of a blobpool store.
//
// The index maps record names to the frame placements that hold their
// payloads. Container files are append-only and carry no per-record
// directory of their own, so the index is the only way to find a record
// again after it is written.
//
// Two implementations exist: an in-memory map for tests and ephemeral
// stores, and a BadgerDB-backed index for persistent stores.
package index

import (
	"context"
	"errors"
	"time"

	"github.com/blobpool/blobpool/pkg/lease"
)

// ErrNotFound is returned when a record name or mark key is not in the
// index.
var ErrNotFound = errors.New("record not found")

// Entry records where a payload lives and how to verify it.
type Entry struct {
	// Blob is the container the record was appended to.
	Blob lease.BlobID

	// Offset is the byte position of the record's frame header inside
	// the container.
	Offset uint64

	// Length is the uncompressed payload length.
	Length uint32

	// Stored is the on-disk payload length after encoding.
	Stored uint32

	// Codec names the frame encoding ("raw" or "zstd").
	Codec string

	// Digest is the BLAKE2b-256 digest of the uncompressed payload.
	Digest []byte

	// CreatedAt is when the record was written.
	CreatedAt time.Time
}

// Index stores record entries plus small operational marks (for example
// archive progress). Implementations must be safe for concurrent use.
type Index interface {
	// Put stores or replaces the entry for name.
	Put(ctx context.Context, name string, entry Entry) error

	// Get returns the entry for name, or ErrNotFound.
	Get(ctx context.Context, name string) (Entry, error)

	// List returns all record names in lexicographic order.
	List(ctx context.Context) ([]string, error)

	// Count returns the number of record entries.
	Count(ctx context.Context) (int, error)

	// SetMark stores a small operational value under key. Marks live in
	// a namespace separate from record entries.
	SetMark(ctx context.Context, key string, value []byte) error

	// GetMark returns the value stored under key, or ErrNotFound.
	GetMark(ctx context.Context, key string) ([]byte, error)

	// Close releases the index. No other method may be called after.
	Close() error
}
