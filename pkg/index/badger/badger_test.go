package badger_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blobpool/blobpool/pkg/index"
	"github.com/blobpool/blobpool/pkg/index/badger"
	"github.com/blobpool/blobpool/pkg/index/indextest"
)

func TestConformance(t *testing.T) {
	indextest.RunConformanceSuite(t, func(t *testing.T) index.Index {
		idx, err := badger.New(filepath.Join(t.TempDir(), "index"))
		if err != nil {
			t.Fatalf("badger.New() failed: %v", err)
		}
		t.Cleanup(func() { idx.Close() })
		return idx
	})
}

func TestReopenPersistsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index")

	idx, err := badger.New(path)
	if err != nil {
		t.Fatalf("badger.New() failed: %v", err)
	}
	entry := index.Entry{Blob: 2, Offset: 128, Length: 64, Stored: 64, Codec: "raw"}
	if err := idx.Put(ctx, "survivor", entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := idx.SetMark(ctx, "archived:00002", []byte("done")); err != nil {
		t.Fatalf("SetMark failed: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen and verify both namespaces survived.
	idx, err = badger.New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer idx.Close()

	got, err := idx.Get(ctx, "survivor")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.Blob != entry.Blob || got.Offset != entry.Offset || got.Codec != entry.Codec {
		t.Errorf("Get after reopen = %+v, want %+v", got, entry)
	}

	mark, err := idx.GetMark(ctx, "archived:00002")
	if err != nil {
		t.Fatalf("GetMark after reopen failed: %v", err)
	}
	if string(mark) != "done" {
		t.Errorf("GetMark after reopen = %q, want %q", mark, "done")
	}
}
