// Package archive uploads sealed blob containers to S3-compatible object
// storage.
//
// A blob is archivable once it is sealed: its write offset has reached the
// size ceiling, so the container file will never change again. The
// archiver walks the lease snapshot, skips blobs that already carry an
// archived mark in the index, and uploads the rest concurrently. Marks are
// written back to the index after each successful upload, which makes
// Archive idempotent: a rerun after a partial failure re-uploads only the
// unmarked blobs, and PutObject overwrites are harmless.
//
// Uploads never race appends because sealed containers receive no further
// leases.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/internal/telemetry"
	"github.com/blobpool/blobpool/pkg/index"
	"github.com/blobpool/blobpool/pkg/lease"
)

// S3API is the slice of the S3 client the archiver uses. *s3.Client
// satisfies it; tests substitute fakes.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Source is the store surface the archiver reads: the blob allocation
// snapshot, container file locations, and the store identity that
// namespaces object keys.
type Source interface {
	Snapshot() []lease.BlobStatus
	BlobPath(id lease.BlobID) (string, error)
	StoreID() string
}

// Config controls archival behavior.
type Config struct {
	// Bucket is the destination bucket. Required; must already exist.
	Bucket string

	// Prefix is an optional key prefix inside the bucket. Keys take the
	// form <prefix>/<store-id>/<container-file-name>.
	Prefix string

	// Concurrency bounds parallel uploads. Default 4.
	Concurrency int

	// Metrics is an optional metrics sink.
	Metrics Metrics
}

// Defaults for the retry policy on transient upload errors.
const (
	defaultConcurrency    = 4
	defaultMaxRetries     = 3
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// Archiver uploads sealed containers and tracks them through index marks.
// Create one with New; Archive may be called repeatedly and concurrently
// with store writes.
type Archiver struct {
	client S3API
	source Source
	idx    index.Index
	cfg    Config
	retry  retryConfig
}

// New creates an archiver and verifies the destination bucket is
// reachable.
func New(ctx context.Context, client S3API, source Source, idx index.Index, cfg Config) (*Archiver, error) {
	if client == nil {
		return nil, fmt.Errorf("nil S3 client")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("no bucket configured")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("access bucket %q: %w", cfg.Bucket, err)
	}

	return &Archiver{
		client: client,
		source: source,
		idx:    idx,
		cfg:    cfg,
		retry: retryConfig{
			maxRetries:        defaultMaxRetries,
			initialBackoff:    defaultInitialBackoff,
			maxBackoff:        defaultMaxBackoff,
			backoffMultiplier: 2.0,
		},
	}, nil
}

// Result summarizes one Archive run.
type Result struct {
	// Uploaded lists the blobs archived by this run, in ID order.
	Uploaded []lease.BlobID `json:"uploaded"`

	// Skipped counts sealed blobs that already carried an archived mark.
	Skipped int `json:"skipped"`
}

// mark is the JSON value stored under a blob's archived mark.
type mark struct {
	Key        string    `json:"key"`
	Size       uint64    `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// MarkKey returns the index mark key for blob id.
func MarkKey(id lease.BlobID) string {
	return fmt.Sprintf("archived:%05d", id)
}

// Archive uploads every sealed, not-yet-archived blob. It returns after
// all candidates finish; on failure the error is the first upload's, and
// the Result still lists what succeeded.
func (a *Archiver) Archive(ctx context.Context) (Result, error) {
	ctx, span := telemetry.StartArchiveSpan(ctx, telemetry.SpanArchiveRun,
		telemetry.Bucket(a.cfg.Bucket))
	defer span.End()

	var (
		candidates []lease.BlobStatus
		skipped    int
	)
	for _, b := range a.source.Snapshot() {
		if !b.Sealed {
			continue
		}
		archived, err := a.isArchived(ctx, b.ID)
		if err != nil {
			return Result{}, err
		}
		if archived {
			skipped++
			if a.cfg.Metrics != nil {
				a.cfg.Metrics.ObserveSkip()
			}
			continue
		}
		candidates = append(candidates, b)
	}

	if len(candidates) == 0 {
		logger.Debug("No blobs to archive", "skipped", skipped)
		return Result{Skipped: skipped}, nil
	}

	var (
		mu       sync.Mutex
		uploaded []lease.BlobID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for _, b := range candidates {
		g.Go(func() error {
			if err := a.uploadBlob(gctx, b); err != nil {
				if a.cfg.Metrics != nil {
					a.cfg.Metrics.ObserveFailure()
				}
				return err
			}
			mu.Lock()
			uploaded = append(uploaded, b.ID)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	sort.Slice(uploaded, func(i, j int) bool { return uploaded[i] < uploaded[j] })
	res := Result{Uploaded: uploaded, Skipped: skipped}
	if err != nil {
		telemetry.RecordError(ctx, err)
		return res, err
	}

	logger.Info("Archive run complete",
		"uploaded", len(res.Uploaded),
		"skipped", res.Skipped,
		"bucket", a.cfg.Bucket)
	return res, nil
}

// isArchived reports whether blob id already carries an archived mark.
func (a *Archiver) isArchived(ctx context.Context, id lease.BlobID) (bool, error) {
	return IsArchived(ctx, a.idx, id)
}

// IsArchived reports whether blob id carries an archived mark in idx.
func IsArchived(ctx context.Context, idx index.Index, id lease.BlobID) (bool, error) {
	_, err := idx.GetMark(ctx, MarkKey(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, index.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("read archive mark for blob %d: %w", id, err)
}

// uploadBlob uploads one container file and records its mark.
func (a *Archiver) uploadBlob(ctx context.Context, b lease.BlobStatus) error {
	blobPath, err := a.source.BlobPath(b.ID)
	if err != nil {
		return fmt.Errorf("blob %d: %w", b.ID, err)
	}
	key := a.objectKey(filepath.Base(blobPath))

	ctx, span := telemetry.StartArchiveSpan(ctx, telemetry.SpanArchiveUpload,
		telemetry.BlobID(int(b.ID)),
		telemetry.StorageKey(key))
	defer span.End()

	f, err := os.Open(blobPath)
	if err != nil {
		return fmt.Errorf("open blob %d: %w", b.ID, err)
	}
	defer func() { _ = f.Close() }()

	start := time.Now()
	if err := a.putWithRetry(ctx, key, f); err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("upload blob %d: %w", b.ID, err)
	}
	duration := time.Since(start)

	value, err := json.Marshal(mark{
		Key:        key,
		Size:       b.WriteOffset,
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode archive mark: %w", err)
	}
	if err := a.idx.SetMark(ctx, MarkKey(b.ID), value); err != nil {
		return fmt.Errorf("record archive mark for blob %d: %w", b.ID, err)
	}

	if a.cfg.Metrics != nil {
		a.cfg.Metrics.ObserveUpload(int64(b.WriteOffset), duration)
	}
	logger.Info("Archived blob",
		"blob", b.ID,
		"key", key,
		"bytes", b.WriteOffset,
		"duration_ms", logger.Duration(start))
	return nil
}

// putWithRetry uploads the file with exponential backoff on transient
// errors, rewinding the body between attempts.
func (a *Archiver) putWithRetry(ctx context.Context, key string, f *os.File) error {
	var lastErr error

	for attempt := 0; attempt <= a.retry.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := a.retry.backoff(attempt - 1)
			logger.Debug("Retrying blob upload",
				"key", key, "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if _, err := f.Seek(0, 0); err != nil {
			return fmt.Errorf("rewind %s: %w", f.Name(), err)
		}

		_, lastErr = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.cfg.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if lastErr == nil {
			return nil
		}
		if !isRetryableError(lastErr) {
			break
		}
	}

	return fmt.Errorf("after %d attempts: %w", a.retry.maxRetries+1, lastErr)
}

// objectKey builds the bucket key for a container file name.
func (a *Archiver) objectKey(fileName string) string {
	return path.Join(a.cfg.Prefix, a.source.StoreID(), fileName)
}
