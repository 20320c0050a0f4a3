package lease

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Construction Tests
// ============================================================================

func TestNew_InitialState(t *testing.T) {
	t.Parallel()

	m, err := New(64, 3, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, m.NumBlobs())
	assert.Equal(t, uint64(64*1024*1024), m.MaxBlobSize())
	assert.Equal(t, 10, m.MaxBlobs())

	for _, st := range m.Snapshot() {
		assert.False(t, st.Locked, "blob %d should start unlocked", st.ID)
		assert.Equal(t, uint64(0), st.WriteOffset, "blob %d should start at offset 0", st.ID)
		assert.False(t, st.Sealed)
	}
}

func TestNew_RejectsZeroInitialBlobs(t *testing.T) {
	t.Parallel()

	_, err := New(64, 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(64, -1, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewWithOffsets(t *testing.T) {
	t.Parallel()

	m, err := NewWithOffsets(1, []uint64{10, 1024 * 1024, 0}, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, m.NumBlobs())

	snap := m.Snapshot()
	assert.Equal(t, uint64(10), snap[0].WriteOffset)
	assert.False(t, snap[0].Sealed)
	assert.Equal(t, uint64(1024*1024), snap[1].WriteOffset)
	assert.True(t, snap[1].Sealed, "blob at the ceiling should report sealed")
	assert.Equal(t, uint64(0), snap[2].WriteOffset)
}

func TestNewWithOffsets_RejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := NewWithOffsets(1, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

// ============================================================================
// Acquire Tests
// ============================================================================

func TestAcquire_RoundRobinFanOut(t *testing.T) {
	t.Parallel()

	m, err := New(64, 4, 10)
	require.NoError(t, err)

	// Sequential acquire/release pairs with every blob eligible must visit
	// all four blobs before repeating any. The cursor advances before each
	// probe, so the first lease lands on blob 1, not blob 0.
	seen := make(map[BlobID]bool)
	var order []BlobID
	for i := 0; i < 4; i++ {
		id, err := m.Acquire(100)
		require.NoError(t, err)
		assert.False(t, seen[id], "blob %d leased twice before full rotation", id)
		seen[id] = true
		order = append(order, id)
		m.Release(id, 100)
	}

	assert.Equal(t, []BlobID{1, 2, 3, 0}, order)
}

func TestAcquire_SkipsLockedBlobs(t *testing.T) {
	t.Parallel()

	m, err := New(64, 2, 10)
	require.NoError(t, err)

	first, err := m.Acquire(0)
	require.NoError(t, err)

	second, err := m.Acquire(0)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestAcquire_GrowsWhenAllBusy(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 3)
	require.NoError(t, err)

	id0, err := m.Acquire(0)
	require.NoError(t, err)
	assert.Equal(t, BlobID(0), id0)

	// Blob 0 is held, so the second acquire must grow the table.
	id1, err := m.Acquire(0)
	require.NoError(t, err)
	assert.Equal(t, BlobID(1), id1)
	assert.Equal(t, 2, m.NumBlobs())
}

func TestAcquire_CapacityCeiling(t *testing.T) {
	t.Parallel()

	m, err := New(64, 2, 2)
	require.NoError(t, err)

	_, err = m.Acquire(0)
	require.NoError(t, err)
	_, err = m.Acquire(0)
	require.NoError(t, err)

	_, err = m.Acquire(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, m.NumBlobs(), "failed acquire must not grow the table")
}

func TestAcquire_SkipsSealedBlobs(t *testing.T) {
	t.Parallel()

	// 1 MB ceiling, two blobs, one of them full.
	m, err := New(1, 2, 2)
	require.NoError(t, err)

	id, err := m.Acquire(0)
	require.NoError(t, err)
	m.Release(id, 1024*1024)

	// The sealed blob must never be returned, even though it is unlocked.
	for i := 0; i < 4; i++ {
		got, err := m.Acquire(0)
		require.NoError(t, err)
		assert.NotEqual(t, id, got, "sealed blob handed out on iteration %d", i)
		m.Release(got, 0)
	}
}

func TestAcquire_AllSealedFailsAtCeiling(t *testing.T) {
	t.Parallel()

	m, err := New(1, 2, 2)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		id, err := m.Acquire(0)
		require.NoError(t, err)
		m.Release(id, 2*1024*1024)
	}

	_, err = m.Acquire(0)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

// ============================================================================
// Release Tests
// ============================================================================

func TestRelease_PublishesOffsetAndUnlocks(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	id, err := m.Acquire(0)
	require.NoError(t, err)
	m.Release(id, 4096)

	snap := m.Snapshot()
	assert.False(t, snap[id].Locked)
	assert.Equal(t, uint64(4096), snap[id].WriteOffset)

	// The blob is eligible again and its offset is the released one.
	again, err := m.Acquire(0)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestRelease_OffsetsNonDecreasing(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	var last uint64
	for _, off := range []uint64{100, 250, 250, 4096} {
		id, err := m.Acquire(0)
		require.NoError(t, err)
		m.Release(id, off)

		snap := m.Snapshot()
		assert.GreaterOrEqual(t, snap[id].WriteOffset, last)
		last = snap[id].WriteOffset
	}
}

func TestRelease_PanicsOnUnheldBlob(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	assert.Panics(t, func() { m.Release(0, 100) }, "releasing an unleased blob must panic")
}

func TestRelease_PanicsOnUnknownBlob(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	assert.Panics(t, func() { m.Release(7, 100) })
	assert.Panics(t, func() { m.Release(-1, 100) })
}

// ============================================================================
// AcquireWait Tests
// ============================================================================

func TestAcquireWait_UnblocksOnRelease(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	held, err := m.Acquire(0)
	require.NoError(t, err)

	got := make(chan BlobID, 1)
	go func() {
		id, err := m.AcquireWait(context.Background(), 0)
		if err == nil {
			got <- id
		}
	}()

	// The waiter must not complete while the only blob is held.
	select {
	case id := <-got:
		t.Fatalf("AcquireWait returned %d while blob was held", id)
	case <-time.After(50 * time.Millisecond):
	}

	m.Release(held, 128)

	select {
	case id := <-got:
		assert.Equal(t, held, id)
	case <-time.After(2 * time.Second):
		t.Fatal("AcquireWait did not unblock after release")
	}
}

func TestAcquireWait_ContextCancellation(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	_, err = m.Acquire(0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = m.AcquireWait(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireWait_ImmediateWhenAvailable(t *testing.T) {
	t.Parallel()

	m, err := New(64, 2, 2)
	require.NoError(t, err)

	id, err := m.AcquireWait(context.Background(), 0)
	require.NoError(t, err)
	m.Release(id, 0)
}

func TestAcquireWait_FailsFastWhenPermanentlyFull(t *testing.T) {
	t.Parallel()

	m, err := New(1, 1, 1)
	require.NoError(t, err)

	// Seal the only blob. With no lease outstanding, no release can ever
	// reopen capacity, so waiting would hang forever.
	id, err := m.Acquire(0)
	require.NoError(t, err)
	m.Release(id, m.MaxBlobSize())

	done := make(chan error, 1)
	go func() {
		_, err := m.AcquireWait(context.Background(), 0)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("AcquireWait blocked on a permanently full pool")
	}
}

func TestAcquireWait_KeepsWaitingWhileLeaseHeld(t *testing.T) {
	t.Parallel()

	m, err := New(1, 1, 1)
	require.NoError(t, err)

	// One lease outstanding on an otherwise full pool: the waiter must
	// stay blocked because the holder could still release below the
	// ceiling.
	held, err := m.Acquire(0)
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		_, err := m.AcquireWait(context.Background(), 0)
		got <- err
	}()

	select {
	case err := <-got:
		t.Fatalf("AcquireWait returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	// Release under the ceiling; the waiter takes over the blob.
	m.Release(held, 512)

	select {
	case err := <-got:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("AcquireWait did not unblock after release")
	}
}

// ============================================================================
// WriteOffset Tests
// ============================================================================

func TestWriteOffset_TracksReleases(t *testing.T) {
	t.Parallel()

	m, err := NewWithOffsets(64, []uint64{100, 200}, 4)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), m.WriteOffset(0))
	assert.Equal(t, uint64(200), m.WriteOffset(1))

	id, err := m.Acquire(0)
	require.NoError(t, err)
	m.Release(id, 4096)
	assert.Equal(t, uint64(4096), m.WriteOffset(id))
}

func TestWriteOffset_PanicsOnUnknownBlob(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 1)
	require.NoError(t, err)

	assert.Panics(t, func() { m.WriteOffset(5) })
	assert.Panics(t, func() { m.WriteOffset(-1) })
}

// ============================================================================
// Contention Tests
// ============================================================================

func TestAcquire_MutualExclusion(t *testing.T) {
	t.Parallel()

	m, err := New(64, 4, 16)
	require.NoError(t, err)

	const (
		workers    = 8
		iterations = 200
	)

	var (
		mu       sync.Mutex
		held     = make(map[BlobID]bool)
		failures int
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				id, err := m.Acquire(64)
				if err != nil {
					if !errors.Is(err, ErrCapacityExceeded) {
						t.Errorf("unexpected acquire error: %v", err)
						return
					}
					continue
				}

				mu.Lock()
				if held[id] {
					failures++
				}
				held[id] = true
				mu.Unlock()

				runtime.Gosched()

				mu.Lock()
				held[id] = false
				mu.Unlock()
				m.Release(id, 0)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures, "two workers held the same blob concurrently")
	assert.LessOrEqual(t, m.NumBlobs(), 16)
}

func TestAcquireWait_ManyWaitersAllServed(t *testing.T) {
	t.Parallel()

	m, err := New(64, 1, 2)
	require.NoError(t, err)

	const waiters = 6

	var wg sync.WaitGroup
	for w := 0; w < waiters; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			id, err := m.AcquireWait(ctx, 0)
			if err != nil {
				t.Errorf("waiter failed: %v", err)
				return
			}
			time.Sleep(time.Millisecond)
			m.Release(id, 0)
		}()
	}
	wg.Wait()
}
