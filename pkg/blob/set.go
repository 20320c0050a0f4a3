package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blobpool/blobpool/pkg/lease"
)

// Container file naming: blob-00000.dat, blob-00001.dat, ...
const (
	filePrefix = "blob-"
	fileSuffix = ".dat"
)

// syncConcurrency bounds parallel fsync fan-out in SyncAll.
const syncConcurrency = 4

// Set manages the container files of one store directory. Blob IDs map to
// file positions: blob i lives in blob-%05i.dat. Files are created lazily
// as the lease table grows and are never removed, so the on-disk set is
// always contiguous from zero.
type Set struct {
	dir string

	mu    sync.RWMutex
	files []*File
}

// fileName returns the container file name for a blob ID.
func fileName(id lease.BlobID) string {
	return fmt.Sprintf("%s%05d%s", filePrefix, id, fileSuffix)
}

// OpenSet opens every container file in dir, in blob ID order. The set of
// IDs on disk must be contiguous from zero; a gap means the directory was
// tampered with and is reported as an error.
func OpenSet(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob directory %q: %w", dir, err)
	}

	var ids []int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		numPart := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		id, err := strconv.Atoi(numPart)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("unexpected file %q in blob directory %q", name, dir)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	set := &Set{dir: dir}
	for i, id := range ids {
		if id != i {
			return nil, fmt.Errorf("blob directory %q is missing blob %d (found %d)", dir, i, id)
		}
		f, err := openFile(lease.BlobID(id), filepath.Join(dir, fileName(lease.BlobID(id))))
		if err != nil {
			_ = set.Close()
			return nil, err
		}
		set.files = append(set.files, f)
	}
	return set, nil
}

// Len returns the number of container files.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Sizes returns the current length of every container, in blob ID order.
// The store seeds the lease table from these on open.
func (s *Set) Sizes() ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sizes := make([]uint64, len(s.files))
	for i, f := range s.files {
		size, err := f.Size()
		if err != nil {
			return nil, err
		}
		sizes[i] = size
	}
	return sizes, nil
}

// File returns the container for id.
func (s *Set) File(id lease.BlobID) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 0 || int(id) >= len(s.files) {
		return nil, fmt.Errorf("blob %d: %w", id, ErrNoSuchBlob)
	}
	return s.files[id], nil
}

// Grow creates the next container file and returns it.
func (s *Set) Grow() (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.growLocked()
}

func (s *Set) growLocked() (*File, error) {
	id := lease.BlobID(len(s.files))
	f, err := openFile(id, filepath.Join(s.dir, fileName(id)))
	if err != nil {
		return nil, err
	}
	s.files = append(s.files, f)
	return f, nil
}

// Ensure returns the container for id, creating files up to and including
// id if the lease table has grown past the on-disk set. Intermediate files
// are created too so the set stays contiguous.
func (s *Set) Ensure(id lease.BlobID) (*File, error) {
	if id < 0 {
		return nil, fmt.Errorf("blob %d: %w", id, ErrNoSuchBlob)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for int(id) >= len(s.files) {
		if _, err := s.growLocked(); err != nil {
			return nil, err
		}
	}
	return s.files[id], nil
}

// SyncAll flushes every container to stable storage, a few in parallel.
func (s *Set) SyncAll(ctx context.Context) error {
	s.mu.RLock()
	files := make([]*File, len(s.files))
	copy(files, s.files)
	s.mu.RUnlock()

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, f := range files {
		g.Go(f.Sync)
	}
	return g.Wait()
}

// Close closes every container file. The first error is returned but all
// files are closed regardless.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = nil
	return firstErr
}
