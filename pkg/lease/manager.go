// Package lease implements the blob allocation core of blobpool.
//
// A Manager owns an ordered table of blob records, one per backing blob
// container. Each record tracks a lock flag and the blob's current write
// offset (the byte position of the next append). Concurrent writers call
// Acquire to obtain an exclusive, short-lived lease on one blob, append
// their payload through the container layer, then call Release with the
// new end offset. Release is the only place offsets change.
//
// Blob selection is a round-robin scan: each Acquire advances a rotation
// cursor before probing, so repeated calls fan out across blobs instead of
// hammering the first free one. When no existing blob is eligible the table
// grows by exactly one record, up to a hard ceiling; at the ceiling Acquire
// fails fast with ErrCapacityExceeded. There is deliberately no least-full
// or LRU policy.
//
// Acquire never blocks. Callers that prefer to wait for a lease use
// AcquireWait, which retries whenever a release signals that availability
// may have changed.
//
// All operations are safe for concurrent use. The entire body of every
// operation runs under one mutex, so each call observes either all or none
// of any other call's effects.
package lease

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BlobID identifies a blob's slot in the manager's table. IDs are 0-based,
// stable for the manager's lifetime, and never reused out of order: the
// table only grows, and a blob's ID is its position.
type BlobID int

// record is the mutable allocation state of a single blob.
type record struct {
	locked      bool
	writeOffset uint64
}

// BlobStatus is a point-in-time view of one blob record, as reported by
// Snapshot.
type BlobStatus struct {
	ID          BlobID
	Locked      bool
	WriteOffset uint64

	// Sealed reports that the blob's write offset has reached the size
	// ceiling. Sealed blobs never receive further leases.
	Sealed bool
}

// Manager tracks the lock state and write offset of every blob and hands
// out exclusive append leases. Create one with New or NewWithOffsets and
// share it; the zero value is not usable.
type Manager struct {
	mu          sync.Mutex
	table       []record
	cursor      int
	maxBlobSize uint64
	maxBlobs    int

	// released is closed and replaced on every Release, broadcasting to
	// AcquireWait callers that availability may have changed.
	released chan struct{}

	metrics Metrics
}

// New creates a manager seeded with initialBlobs unlocked, zero-offset
// records. maxBlobSizeMB is the per-blob size ceiling in megabytes;
// maxBlobs caps how many records the table may ever hold.
//
// initialBlobs must be at least 1, otherwise an error wrapping
// ErrInvalidArgument is returned.
func New(maxBlobSizeMB int, initialBlobs int, maxBlobs int) (*Manager, error) {
	if initialBlobs < 1 {
		return nil, fmt.Errorf("initial blob count must be at least 1, got %d: %w",
			initialBlobs, ErrInvalidArgument)
	}

	m := &Manager{
		table:       make([]record, initialBlobs),
		maxBlobSize: uint64(maxBlobSizeMB) * 1024 * 1024,
		maxBlobs:    maxBlobs,
		released:    make(chan struct{}),
	}
	return m, nil
}

// NewWithOffsets creates a manager whose table is seeded from recovered
// write offsets, one record per element, all unlocked. The store facade
// uses this when reopening a directory that already contains blob files.
//
// offsets must contain at least one element, otherwise an error wrapping
// ErrInvalidArgument is returned.
func NewWithOffsets(maxBlobSizeMB int, offsets []uint64, maxBlobs int) (*Manager, error) {
	if len(offsets) < 1 {
		return nil, fmt.Errorf("at least one recovered offset is required: %w",
			ErrInvalidArgument)
	}

	table := make([]record, len(offsets))
	for i, off := range offsets {
		table[i].writeOffset = off
	}

	return &Manager{
		table:       table,
		maxBlobSize: uint64(maxBlobSizeMB) * 1024 * 1024,
		maxBlobs:    maxBlobs,
		released:    make(chan struct{}),
	}, nil
}

// SetMetrics attaches a metrics sink. A nil sink disables instrumentation.
// Call before the manager is shared between goroutines.
func (m *Manager) SetMetrics(metrics Metrics) {
	m.metrics = metrics
}

// Acquire returns the ID of a blob that is unlocked and below the size
// ceiling, marking it locked in the same step. The caller then has sole
// append access to that blob until it calls Release.
//
// sizeHint is the number of bytes the caller expects to append. It is
// advisory only: eligibility does not check that the hint actually fits
// under the ceiling, so a single oversized append can push a blob past
// maxBlobSize, after which the blob is sealed.
//
// Acquire fails fast: when every blob is locked or sealed and the table is
// at its ceiling it returns an error wrapping ErrCapacityExceeded without
// waiting. No record state changes in that case.
func (m *Manager) Acquire(sizeHint uint64) (BlobID, error) {
	start := time.Now()

	m.mu.Lock()
	id, outcome := m.acquireLocked()
	blobs := len(m.table)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ObserveAcquire(outcome, sizeHint, time.Since(start))
		m.metrics.RecordBlobs(blobs)
	}

	if outcome == AcquireExhausted {
		return 0, fmt.Errorf("no blob available for lease (%d blobs, all locked or full): %w",
			blobs, ErrCapacityExceeded)
	}
	return id, nil
}

// AcquireWait behaves like Acquire but, instead of failing when capacity is
// exhausted, waits for a release to signal that availability may have
// changed and then retries. It returns early with the context's error when
// ctx is cancelled or its deadline passes.
//
// Waiting only makes sense while at least one lease is outstanding: a
// release from its holder may reopen a blob. When the table is at the
// ceiling, every blob is sealed and none is locked, no release can ever
// arrive, so AcquireWait fails fast with ErrCapacityExceeded just like
// Acquire would.
//
// Fairness between concurrent waiters is not guaranteed: every release
// wakes all of them and the retry order is scheduler-dependent.
func (m *Manager) AcquireWait(ctx context.Context, sizeHint uint64) (BlobID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	for {
		m.mu.Lock()
		id, outcome := m.acquireLocked()
		blobs := len(m.table)
		waitable := m.anyLockedLocked()
		released := m.released
		m.mu.Unlock()

		if outcome != AcquireExhausted {
			if m.metrics != nil {
				m.metrics.ObserveAcquire(outcome, sizeHint, time.Since(start))
				m.metrics.RecordBlobs(blobs)
			}
			return id, nil
		}

		if !waitable {
			// Nothing is leased, so nothing will ever be released. The
			// pool is permanently full.
			if m.metrics != nil {
				m.metrics.ObserveAcquire(AcquireExhausted, sizeHint, time.Since(start))
			}
			return 0, fmt.Errorf("no blob available for lease (%d blobs, all full): %w",
				blobs, ErrCapacityExceeded)
		}

		select {
		case <-ctx.Done():
			if m.metrics != nil {
				m.metrics.ObserveAcquire(AcquireExhausted, sizeHint, time.Since(start))
			}
			return 0, ctx.Err()
		case <-released:
			// Availability may have changed; scan again.
		}
	}
}

// acquireLocked runs the round-robin selection and locks the chosen record.
// Callers must hold m.mu.
func (m *Manager) acquireLocked() (BlobID, string) {
	id, outcome := m.nextAvailable()
	if outcome == AcquireExhausted {
		return 0, outcome
	}
	m.table[id].locked = true
	return id, outcome
}

// nextAvailable implements the selection algorithm: advance the cursor,
// fast-path check, wrap-around scan, then lazy growth. Returns the chosen
// ID and the acquire outcome. Callers must hold m.mu.
//
// The cursor is advanced in place during the scan, so on success it rests
// on the returned ID and the next call starts one past it. On exhaustion
// the cursor has netted a single step forward; record state is untouched.
func (m *Manager) nextAvailable() (BlobID, string) {
	// Move the starting point forward so repeated calls do not always
	// probe the same blob first.
	m.advanceCursor()

	if m.eligible(m.cursor) {
		return BlobID(m.cursor), AcquireGranted
	}

	// Scan forward with wraparound until we are back at the start.
	start := m.cursor
	m.advanceCursor()
	for m.cursor != start {
		if m.eligible(m.cursor) {
			return BlobID(m.cursor), AcquireGranted
		}
		m.advanceCursor()
	}

	// Every blob is locked or sealed. Grow by one if the ceiling allows.
	if len(m.table) >= m.maxBlobs {
		return 0, AcquireExhausted
	}
	m.table = append(m.table, record{})
	return BlobID(len(m.table) - 1), AcquireGrown
}

// advanceCursor moves the cursor one slot forward, wrapping past the end.
func (m *Manager) advanceCursor() {
	m.cursor++
	if m.cursor >= len(m.table) {
		m.cursor = 0
	}
}

// anyLockedLocked reports whether any record currently holds a lease.
// Callers must hold m.mu.
func (m *Manager) anyLockedLocked() bool {
	for i := range m.table {
		if m.table[i].locked {
			return true
		}
	}
	return false
}

// eligible reports whether the record at index i can take a new lease.
func (m *Manager) eligible(i int) bool {
	return !m.table[i].locked && m.table[i].writeOffset < m.maxBlobSize
}

// Release commits the write performed under the lease on id: it sets the
// blob's write offset to newOffset, clears the lock, and wakes any
// AcquireWait callers. This is the sole mutator of offset state, and since
// the backing containers are append-only, successive offsets for one blob
// never decrease.
//
// The caller must hold the lease on id. Releasing an out-of-range ID or a
// blob that is not locked is a programming error and panics.
func (m *Manager) Release(id BlobID, newOffset uint64) {
	start := time.Now()

	m.mu.Lock()
	if id < 0 || int(id) >= len(m.table) {
		m.mu.Unlock()
		panic(fmt.Sprintf("lease: release of unknown blob %d (table size %d)", id, len(m.table)))
	}
	if !m.table[id].locked {
		m.mu.Unlock()
		panic(fmt.Sprintf("lease: release of blob %d which is not leased", id))
	}

	m.table[id].writeOffset = newOffset
	m.table[id].locked = false

	// Broadcast to waiters by retiring the current channel.
	close(m.released)
	m.released = make(chan struct{})
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ObserveRelease(time.Since(start))
	}
}

// WriteOffset returns the current write offset of blob id. The value is
// only stable while the caller holds the lease on id; writers read it once
// after Acquire to learn where their append starts.
//
// Asking for an out-of-range ID is a programming error and panics.
func (m *Manager) WriteOffset(id BlobID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || int(id) >= len(m.table) {
		panic(fmt.Sprintf("lease: write offset of unknown blob %d (table size %d)", id, len(m.table)))
	}
	return m.table[id].writeOffset
}

// NumBlobs returns the current number of blob records.
func (m *Manager) NumBlobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}

// MaxBlobSize returns the configured per-blob size ceiling in bytes.
func (m *Manager) MaxBlobSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxBlobSize
}

// MaxBlobs returns the configured ceiling on the number of blobs.
func (m *Manager) MaxBlobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxBlobs
}

// Snapshot returns a copy of every blob's current status, in ID order.
// The copy is consistent: it reflects no partially applied operation.
func (m *Manager) Snapshot() []BlobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]BlobStatus, len(m.table))
	for i, rec := range m.table {
		out[i] = BlobStatus{
			ID:          BlobID(i),
			Locked:      rec.locked,
			WriteOffset: rec.writeOffset,
			Sealed:      rec.writeOffset >= m.maxBlobSize,
		}
	}
	return out
}
