// Package badger provides the BadgerDB-backed record index used by
// persistent stores.
//
// Records and marks share one database under prefixed key namespaces (see
// encoding.go). Entries use a compact binary layout so index writes stay
// cheap on the Put path.
package badger

import (
	"context"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/blobpool/blobpool/pkg/index"
)

// Index is a BadgerDB-backed index.Index implementation.
type Index struct {
	db *badgerdb.DB
}

// Ensure Index implements the index interface.
var _ index.Index = (*Index)(nil)

// New opens (or creates) the index database at path.
//
// Badger's own logging is disabled; the store logs open and close at the
// level it wants.
func New(path string) (*Index, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database at %q: %w", path, err)
	}
	return &Index{db: db}, nil
}

// Put stores or replaces the entry for name.
func (i *Index) Put(ctx context.Context, name string, entry index.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry for %q: %w", name, err)
	}

	return i.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyRecord(name), value)
	})
}

// Get returns the entry for name.
func (i *Index) Get(ctx context.Context, name string) (index.Entry, error) {
	if err := ctx.Err(); err != nil {
		return index.Entry{}, err
	}

	var entry index.Entry
	err := i.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyRecord(name))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("%q: %w", name, index.ErrNotFound)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var decErr error
			entry, decErr = decodeEntry(val)
			return decErr
		})
	})
	if err != nil {
		return index.Entry{}, err
	}
	return entry, nil
}

// List returns all record names in lexicographic order. BadgerDB iterates
// in key order, so no extra sorting is needed.
func (i *Index) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := i.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRecord)
		// Keys alone are enough here, skip value prefetch.
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			names = append(names, strings.TrimPrefix(key, prefixRecord))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Count returns the number of record entries.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int
	err := i.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRecord)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SetMark stores a small operational value under key.
func (i *Index) SetMark(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return i.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(keyMark(key), value)
	})
}

// GetMark returns the value stored under key.
func (i *Index) GetMark(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := i.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(keyMark(key))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("%q: %w", key, index.ErrNotFound)
		}
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SizeOnDisk returns the LSM tree and value log sizes in bytes, for
// metrics reporting.
func (i *Index) SizeOnDisk() (lsm int64, vlog int64) {
	return i.db.Size()
}

// Close flushes and closes the database.
func (i *Index) Close() error {
	return i.db.Close()
}
