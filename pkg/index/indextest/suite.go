// Package indextest provides a behavioral conformance suite shared by all
// index implementations. Backend test files supply a factory and run the
// same cases, so memory and badger cannot drift apart.
package indextest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blobpool/blobpool/pkg/index"
	"github.com/blobpool/blobpool/pkg/lease"
)

// Factory creates a fresh index for each test. The factory receives
// *testing.T so it can use t.TempDir() for backends that need a path and
// t.Cleanup() for teardown.
type Factory func(t *testing.T) index.Index

// RunConformanceSuite runs the behavioral suite against the provided
// factory. Each case gets a fresh index to ensure isolation.
func RunConformanceSuite(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("PutGet", func(t *testing.T) { testPutGet(t, factory) })
	t.Run("GetNotFound", func(t *testing.T) { testGetNotFound(t, factory) })
	t.Run("PutOverwrite", func(t *testing.T) { testPutOverwrite(t, factory) })
	t.Run("ListSorted", func(t *testing.T) { testListSorted(t, factory) })
	t.Run("Count", func(t *testing.T) { testCount(t, factory) })
	t.Run("Marks", func(t *testing.T) { testMarks(t, factory) })
	t.Run("MarkNotFound", func(t *testing.T) { testMarkNotFound(t, factory) })
	t.Run("DigestIsolation", func(t *testing.T) { testDigestIsolation(t, factory) })
}

func testEntry(blob int, offset uint64) index.Entry {
	return index.Entry{
		Blob:      lease.BlobID(blob),
		Offset:    offset,
		Length:    1024,
		Stored:    512,
		Codec:     "zstd",
		Digest:    bytes.Repeat([]byte{0xab}, 32),
		CreatedAt: time.Now(),
	}
}

func testPutGet(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	want := testEntry(3, 4096)
	if err := idx.Put(ctx, "alpha", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := idx.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Blob != want.Blob || got.Offset != want.Offset {
		t.Errorf("Get placement = blob %d offset %d, want blob %d offset %d",
			got.Blob, got.Offset, want.Blob, want.Offset)
	}
	if got.Length != want.Length || got.Stored != want.Stored || got.Codec != want.Codec {
		t.Errorf("Get sizes/codec = %d/%d/%q, want %d/%d/%q",
			got.Length, got.Stored, got.Codec, want.Length, want.Stored, want.Codec)
	}
	if !bytes.Equal(got.Digest, want.Digest) {
		t.Errorf("Get digest = %x, want %x", got.Digest, want.Digest)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Get created = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func testGetNotFound(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	_, err := idx.Get(ctx, "missing")
	if !errors.Is(err, index.ErrNotFound) {
		t.Errorf("Get returned %v, want ErrNotFound", err)
	}
}

func testPutOverwrite(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	if err := idx.Put(ctx, "alpha", testEntry(0, 0)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	second := testEntry(5, 8192)
	if err := idx.Put(ctx, "alpha", second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := idx.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Blob != second.Blob || got.Offset != second.Offset {
		t.Errorf("Get after overwrite = blob %d offset %d, want blob %d offset %d",
			got.Blob, got.Offset, second.Blob, second.Offset)
	}

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count after overwrite = %d, want 1", count)
	}
}

func testListSorted(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	names, err := idx.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List on empty index = %v, want empty", names)
	}

	// Insert out of order
	for _, name := range []string{"cherry", "apple", "banana"} {
		if err := idx.Put(ctx, name, testEntry(0, 0)); err != nil {
			t.Fatalf("Put(%q) failed: %v", name, err)
		}
	}

	names, err = idx.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	if len(names) != len(want) {
		t.Fatalf("List returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func testCount(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Count on empty index = %d, want 0", count)
	}

	for i, name := range []string{"a", "b", "c", "d"} {
		if err := idx.Put(ctx, name, testEntry(i, 0)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	count, err = idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Count = %d, want 4", count)
	}
}

func testMarks(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	if err := idx.SetMark(ctx, "archived:00003", []byte("2024-01-01")); err != nil {
		t.Fatalf("SetMark failed: %v", err)
	}

	value, err := idx.GetMark(ctx, "archived:00003")
	if err != nil {
		t.Fatalf("GetMark failed: %v", err)
	}
	if string(value) != "2024-01-01" {
		t.Errorf("GetMark = %q, want %q", value, "2024-01-01")
	}

	// Setting the same mark again replaces the value.
	if err := idx.SetMark(ctx, "archived:00003", []byte("2024-06-01")); err != nil {
		t.Fatalf("SetMark failed: %v", err)
	}
	value, err = idx.GetMark(ctx, "archived:00003")
	if err != nil {
		t.Fatalf("GetMark failed: %v", err)
	}
	if string(value) != "2024-06-01" {
		t.Errorf("GetMark after overwrite = %q, want %q", value, "2024-06-01")
	}

	// Marks must not leak into the record namespace.
	count, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d after SetMark, want 0", count)
	}
	names, err := idx.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List = %v after SetMark, want empty", names)
	}
}

func testMarkNotFound(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	_, err := idx.GetMark(ctx, "archived:00099")
	if !errors.Is(err, index.ErrNotFound) {
		t.Errorf("GetMark returned %v, want ErrNotFound", err)
	}
}

func testDigestIsolation(t *testing.T, factory Factory) {
	ctx := context.Background()
	idx := factory(t)

	entry := testEntry(1, 64)
	if err := idx.Put(ctx, "alpha", entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the caller's slice after Put must not change stored state.
	entry.Digest[0] = 0xff

	got, err := idx.Get(ctx, "alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Digest[0] != 0xab {
		t.Errorf("stored digest changed through caller slice: %x", got.Digest[:4])
	}
}
