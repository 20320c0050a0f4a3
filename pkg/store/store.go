// Package store assembles the blobpool storage engine behind one handle.
//
// A Store owns a directory of append-only blob containers, the lease
// manager that allocates append slots across them, and the record index
// that maps names to frame placements. Put and Get are the data path;
// Stats, Sync and the snapshot accessors serve the admin surface and the
// archiver.
//
// The directory is exclusively locked while a Store is open, so two
// processes can never append to the same containers.
package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/internal/telemetry"
	"github.com/blobpool/blobpool/pkg/blob"
	"github.com/blobpool/blobpool/pkg/index"
	badgerindex "github.com/blobpool/blobpool/pkg/index/badger"
	memoryindex "github.com/blobpool/blobpool/pkg/index/memory"
	"github.com/blobpool/blobpool/pkg/lease"
)

// Index backend names accepted by Config.IndexBackend.
const (
	IndexBadger = "badger"
	IndexMemory = "memory"
)

const (
	// lockFile guards the store directory against concurrent opens.
	lockFile = "LOCK"

	// indexDir holds the persistent index database.
	indexDir = "index"
)

// Defaults applied by Open when Config fields are zero.
const (
	defaultMaxBlobSizeMB    = 64
	defaultInitialBlobs     = 1
	defaultMaxBlobs         = 64
	defaultCompressMinBytes = 4096
)

// Config controls how a store directory is opened.
type Config struct {
	// Path is the store directory. Created if missing.
	Path string

	// MaxBlobSizeMB is the per-blob size ceiling in megabytes. A blob
	// whose write offset reaches the ceiling is sealed and receives no
	// further appends.
	MaxBlobSizeMB int

	// InitialBlobs is how many containers a fresh store starts with.
	// Reopened stores keep their existing containers and only grow to
	// this count if they have fewer.
	InitialBlobs int

	// MaxBlobs caps how many containers the store may ever hold.
	MaxBlobs int

	// Compression enables zstd for payloads of at least CompressMinBytes.
	Compression bool

	// CompressMinBytes is the smallest payload worth compressing.
	CompressMinBytes int

	// VerifyOnRead rechecks each record's BLAKE2b digest during Get and
	// fails the read with a CorruptionError on mismatch.
	VerifyOnRead bool

	// IndexBackend selects the record index implementation, IndexBadger
	// (persistent, the default) or IndexMemory.
	IndexBackend string

	// Metrics sinks. Nil disables the corresponding instrumentation.
	Metrics      Metrics
	LeaseMetrics lease.Metrics
	IndexMetrics index.Metrics
}

func (c *Config) applyDefaults() {
	if c.MaxBlobSizeMB <= 0 {
		c.MaxBlobSizeMB = defaultMaxBlobSizeMB
	}
	if c.InitialBlobs <= 0 {
		c.InitialBlobs = defaultInitialBlobs
	}
	if c.MaxBlobs <= 0 {
		c.MaxBlobs = defaultMaxBlobs
	}
	if c.CompressMinBytes <= 0 {
		c.CompressMinBytes = defaultCompressMinBytes
	}
	if c.IndexBackend == "" {
		c.IndexBackend = IndexBadger
	}
}

func (c *Config) validate() error {
	if c.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.InitialBlobs > c.MaxBlobs {
		return fmt.Errorf("initial blob count %d exceeds max blobs %d",
			c.InitialBlobs, c.MaxBlobs)
	}
	return nil
}

// Store is an open blobpool store. Create one with Open; all methods are
// safe for concurrent use. Callers must stop issuing operations before
// Close.
type Store struct {
	cfg      Config
	manifest Manifest

	lock    *dirLock
	set     *blob.Set
	manager *lease.Manager
	idx     index.Index

	openedAt time.Time

	closed    atomic.Bool
	closeOnce sync.Once
}

// Open opens or creates the store directory at cfg.Path.
//
// Opening locks the directory (ErrStoreLocked if another handle holds it),
// loads or initializes manifest.json, scans the existing containers to
// recover their write offsets, tops the set up to cfg.InitialBlobs, seeds
// the lease manager from the recovered offsets, and opens the configured
// index backend.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	lock, err := acquireDirLock(filepath.Join(cfg.Path, lockFile))
	if err != nil {
		return nil, fmt.Errorf("lock store %s: %w", cfg.Path, err)
	}

	success := false
	defer func() {
		if !success {
			_ = lock.release()
		}
	}()

	maxBlobSize := uint64(cfg.MaxBlobSizeMB) * 1024 * 1024

	manifest, err := loadOrCreateManifest(filepath.Join(cfg.Path, manifestFile), maxBlobSize)
	if err != nil {
		return nil, err
	}
	if manifest.MaxBlobSize != maxBlobSize {
		logger.Warn("Blob size ceiling differs from store creation",
			"store", cfg.Path,
			"created_with", manifest.MaxBlobSize,
			"configured", maxBlobSize)
	}

	set, err := blob.OpenSet(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open containers: %w", err)
	}
	defer func() {
		if !success {
			_ = set.Close()
		}
	}()

	for set.Len() < cfg.InitialBlobs {
		if _, err := set.Grow(); err != nil {
			return nil, fmt.Errorf("create container: %w", err)
		}
	}

	sizes, err := set.Sizes()
	if err != nil {
		return nil, fmt.Errorf("recover write offsets: %w", err)
	}
	if len(sizes) > cfg.MaxBlobs {
		return nil, fmt.Errorf("store has %d containers but max blobs is %d",
			len(sizes), cfg.MaxBlobs)
	}

	manager, err := lease.NewWithOffsets(cfg.MaxBlobSizeMB, sizes, cfg.MaxBlobs)
	if err != nil {
		return nil, fmt.Errorf("seed lease manager: %w", err)
	}
	manager.SetMetrics(cfg.LeaseMetrics)

	idx, err := openIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	s := &Store{
		cfg:      cfg,
		manifest: manifest,
		lock:     lock,
		set:      set,
		manager:  manager,
		idx:      idx,
		openedAt: time.Now(),
	}

	records, err := idx.Count(ctx)
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("count records: %w", err)
	}
	if cfg.Metrics != nil {
		cfg.Metrics.RecordRecords(records)
	}

	success = true
	logger.Info("Store opened",
		"store", cfg.Path,
		"store_id", manifest.StoreID,
		"blobs", len(sizes),
		"records", records,
		"index", cfg.IndexBackend)
	return s, nil
}

// openIndex creates the index backend named by cfg.
func openIndex(cfg Config) (index.Index, error) {
	switch cfg.IndexBackend {
	case IndexBadger:
		return badgerindex.New(filepath.Join(cfg.Path, indexDir))
	case IndexMemory:
		return memoryindex.New(), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

// Put appends data under name.
//
// The payload is framed into whichever blob the lease manager selects, so
// consecutive puts fan out across containers. The lease is held only for
// the append itself; the index entry is written after release. Writing an
// existing name replaces its index entry, leaving the superseded frame
// unreferenced in its container.
//
// Put blocks while every blob is busy and returns ErrCapacityExceeded
// (wrapped) once the pool is permanently full.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if name == "" {
		return ErrInvalidName
	}

	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanStorePut, name,
		telemetry.RecordSize(len(data)))
	defer span.End()

	start := time.Now()

	id, err := s.manager.AcquireWait(ctx, uint64(len(data)))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("acquire lease: %w", err)
	}
	telemetry.SetAttributes(ctx, telemetry.BlobID(int(id)))

	file, err := s.set.Ensure(id)
	if err != nil {
		s.manager.Release(id, s.manager.WriteOffset(id))
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("container %d: %w", id, err)
	}

	off := s.manager.WriteOffset(id)

	codec := blob.CodecRaw
	if s.cfg.Compression && len(data) >= s.cfg.CompressMinBytes {
		codec = blob.CodecZstd
	}

	pl, err := file.WriteFrame(data, codec, off)
	if err != nil {
		// The offset stays put, so a partial frame is overwritten by the
		// next append to this blob.
		s.manager.Release(id, off)
		telemetry.RecordError(ctx, err)
		return err
	}

	s.manager.Release(id, pl.End)

	digest := blake2b.Sum256(data)
	entry := index.Entry{
		Blob:      id,
		Offset:    pl.Offset,
		Length:    pl.Length,
		Stored:    pl.Stored,
		Codec:     string(pl.Codec),
		Digest:    digest[:],
		CreatedAt: time.Now().UTC(),
	}
	if err := s.idx.Put(ctx, name, entry); err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("index %q: %w", name, err)
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObservePut(int64(pl.Length), int64(pl.Stored), string(pl.Codec), time.Since(start))
	}
	logger.Debug("Stored record",
		"name", name,
		"blob", id,
		"offset", pl.Offset,
		"bytes", pl.Length,
		"stored", pl.Stored,
		"codec", pl.Codec)
	return nil
}

// Get returns the payload stored under name. Missing names surface as an
// error wrapping index.ErrNotFound. With VerifyOnRead enabled, a payload
// whose digest no longer matches its index entry fails with a
// CorruptionError.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanStoreGet, name)
	defer span.End()

	start := time.Now()

	entry, err := s.idx.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(ctx,
		telemetry.BlobID(int(entry.Blob)),
		telemetry.BlobOffset(entry.Offset))

	file, err := s.set.File(entry.Blob)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("record %q: %w", name, err)
	}

	payload, err := file.ReadFrame(entry.Offset)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("record %q: %w", name, err)
	}

	if s.cfg.VerifyOnRead && len(entry.Digest) > 0 {
		sum := blake2b.Sum256(payload)
		if !bytes.Equal(sum[:], entry.Digest) {
			cerr := &CorruptionError{Name: name, Blob: entry.Blob, Offset: entry.Offset}
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.ObserveVerifyFailure()
			}
			telemetry.RecordError(ctx, cerr)
			logger.Error("Record failed digest verification",
				"name", name, "blob", entry.Blob, "offset", entry.Offset)
			return nil, cerr
		}
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ObserveGet(int64(len(payload)), time.Since(start))
	}
	return payload, nil
}

// List returns every record name in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	return s.idx.List(ctx)
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	StoreID   string    `json:"store_id"`
	CreatedAt time.Time `json:"created_at"`

	// Records is the number of indexed records.
	Records int `json:"records"`

	// Blobs is the per-blob allocation state, in ID order.
	Blobs []lease.BlobStatus `json:"blobs"`

	// TotalBytes is the sum of all container write offsets.
	TotalBytes uint64 `json:"total_bytes"`

	// SealedBlobs counts blobs at or past the size ceiling.
	SealedBlobs int `json:"sealed_blobs"`

	MaxBlobSize uint64 `json:"max_blob_size"`
	MaxBlobs    int    `json:"max_blobs"`

	// Uptime is how long this handle has been open.
	Uptime time.Duration `json:"uptime"`
}

// Stats summarizes the store and refreshes the gauge-style metrics.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	if s.closed.Load() {
		return Stats{}, ErrStoreClosed
	}

	records, err := s.idx.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count records: %w", err)
	}

	snapshot := s.manager.Snapshot()
	var total uint64
	var sealed int
	for _, b := range snapshot {
		total += b.WriteOffset
		if b.Sealed {
			sealed++
		}
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordRecords(records)
	}
	if s.cfg.IndexMetrics != nil {
		if sized, ok := s.idx.(interface{ SizeOnDisk() (int64, int64) }); ok {
			s.cfg.IndexMetrics.RecordSize(sized.SizeOnDisk())
		}
	}

	return Stats{
		StoreID:     s.manifest.StoreID,
		CreatedAt:   s.manifest.CreatedAt,
		Records:     records,
		Blobs:       snapshot,
		TotalBytes:  total,
		SealedBlobs: sealed,
		MaxBlobSize: s.manager.MaxBlobSize(),
		MaxBlobs:    s.manager.MaxBlobs(),
		Uptime:      time.Since(s.openedAt),
	}, nil
}

// Sync flushes every container to stable storage.
func (s *Store) Sync(ctx context.Context) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanStoreSync, "")
	defer span.End()

	if err := s.set.SyncAll(ctx); err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	return nil
}

// Snapshot returns the per-blob allocation state, in ID order.
func (s *Store) Snapshot() []lease.BlobStatus {
	return s.manager.Snapshot()
}

// BlobPath returns the filesystem path of blob id's container file.
func (s *Store) BlobPath(id lease.BlobID) (string, error) {
	f, err := s.set.File(id)
	if err != nil {
		return "", err
	}
	return f.Path(), nil
}

// Index exposes the record index, e.g. for archive bookkeeping.
func (s *Store) Index() index.Index {
	return s.idx
}

// Manifest returns the store's identity manifest.
func (s *Store) Manifest() Manifest {
	return s.manifest
}

// StoreID returns the store's stable identity, assigned at creation.
func (s *Store) StoreID() string {
	return s.manifest.StoreID
}

// MaxBlobSize returns the per-blob byte ceiling in effect.
func (s *Store) MaxBlobSize() uint64 {
	return s.manager.MaxBlobSize()
}

// Close releases the index, the containers and the directory lock. It is
// idempotent; operations issued after Close fail with ErrStoreClosed.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		if e := s.idx.Close(); e != nil {
			err = fmt.Errorf("close index: %w", e)
		}
		if e := s.set.Close(); e != nil && err == nil {
			err = fmt.Errorf("close containers: %w", e)
		}
		if e := s.lock.release(); e != nil && err == nil {
			err = fmt.Errorf("release lock: %w", e)
		}

		logger.Info("Store closed", "store", s.cfg.Path, "store_id", s.manifest.StoreID)
	})
	return err
}
