// Package memory provides an in-memory record index for tests and
// ephemeral stores. All data is lost on Close.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blobpool/blobpool/pkg/index"
)

// Index is a map-backed index.Index implementation.
type Index struct {
	mu      sync.RWMutex
	entries map[string]index.Entry
	marks   map[string][]byte
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{
		entries: make(map[string]index.Entry),
		marks:   make(map[string][]byte),
	}
}

// Put stores or replaces the entry for name.
func (i *Index) Put(ctx context.Context, name string, entry index.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Copy the digest so callers cannot mutate stored state.
	entry.Digest = append([]byte(nil), entry.Digest...)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[name] = entry
	return nil
}

// Get returns the entry for name.
func (i *Index) Get(ctx context.Context, name string) (index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return index.Entry{}, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	entry, ok := i.entries[name]
	if !ok {
		return index.Entry{}, fmt.Errorf("%q: %w", name, index.ErrNotFound)
	}
	entry.Digest = append([]byte(nil), entry.Digest...)
	return entry, nil
}

// List returns all record names in lexicographic order.
func (i *Index) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	names := make([]string, 0, len(i.entries))
	for name := range i.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of record entries.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

// SetMark stores a small operational value under key.
func (i *Index) SetMark(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.marks[key] = append([]byte(nil), value...)
	return nil
}

// GetMark returns the value stored under key.
func (i *Index) GetMark(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	value, ok := i.marks[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, index.ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

// Close discards all entries.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = nil
	i.marks = nil
	return nil
}
