package config

import (
	"context"
	"fmt"

	"github.com/blobpool/blobpool/internal/bytesize"
	"github.com/blobpool/blobpool/internal/logger"
	"github.com/blobpool/blobpool/pkg/archive"
	"github.com/blobpool/blobpool/pkg/store"
)

// InitializeStore opens the blob store described by the configuration.
//
// The metric sinks from res are wired into the store, its lease manager
// and its index; pass a zero MetricsResult when metrics are disabled.
//
// The returned store holds an exclusive lock on the store directory. The
// caller owns it and must Close it on shutdown.
func InitializeStore(ctx context.Context, cfg *Config, res MetricsResult) (*store.Store, error) {
	logger.Debug("Initializing blob store from configuration", "path", cfg.Store.Path)

	st, err := store.Open(ctx, store.Config{
		Path:             cfg.Store.Path,
		MaxBlobSizeMB:    int(cfg.Store.MaxBlobSize / bytesize.MiB),
		InitialBlobs:     cfg.Store.InitialBlobs,
		MaxBlobs:         cfg.Store.MaxBlobs,
		Compression:      cfg.Store.Compression,
		CompressMinBytes: int(cfg.Store.CompressMinBytes),
		VerifyOnRead:     cfg.Store.VerifyOnRead,
		IndexBackend:     cfg.Store.Index,
		Metrics:          res.Store,
		LeaseMetrics:     res.Lease,
		IndexMetrics:     res.Index,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return st, nil
}

// InitializeArchiver creates the S3 archiver for the given store.
//
// Returns (nil, nil) when archival is disabled; the admin API then rejects
// archive requests with 503. When enabled, the S3 client is built from the
// configured endpoint and credentials and bucket access is verified before
// the archiver is returned.
func InitializeArchiver(ctx context.Context, cfg *Config, st *store.Store, res MetricsResult) (*archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	client, err := archive.NewS3Client(ctx, archive.S3Options{
		Endpoint:        cfg.Archive.Endpoint,
		Region:          cfg.Archive.Region,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
		UsePathStyle:    cfg.Archive.ForcePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	arc, err := archive.New(ctx, client, st, st.Index(), archive.Config{
		Bucket:      cfg.Archive.Bucket,
		Prefix:      cfg.Archive.Prefix,
		Concurrency: cfg.Archive.Concurrency,
		Metrics:     res.Archive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archiver: %w", err)
	}

	logger.Info("Archiver configured",
		"bucket", cfg.Archive.Bucket,
		"prefix", cfg.Archive.Prefix,
		"endpoint", cfg.Archive.Endpoint)
	return arc, nil
}
