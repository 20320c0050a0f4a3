package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/blobpool/blobpool/internal/bytesize"
)

// Validate checks the configuration for errors.
//
// Validation happens in two passes: struct tag validation (required fields,
// ranges, enums) followed by cross-field checks that tags cannot express.
// Call ApplyDefaults first; validation does not fill in missing values.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if err := validateStore(&cfg.Store); err != nil {
		return err
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	if err := validateArchive(&cfg.Archive); err != nil {
		return err
	}

	return nil
}

// validateStore checks store constraints that depend on multiple fields.
func validateStore(cfg *StoreConfig) error {
	if cfg.MaxBlobSize < bytesize.MiB {
		return fmt.Errorf("store max_blob_size must be at least 1MiB, got %s", cfg.MaxBlobSize)
	}
	if cfg.MaxBlobSize%bytesize.MiB != 0 {
		return fmt.Errorf("store max_blob_size must be a whole number of MiB, got %s", cfg.MaxBlobSize)
	}
	if cfg.InitialBlobs > cfg.MaxBlobs {
		return fmt.Errorf("store initial_blobs (%d) cannot exceed max_blobs (%d)",
			cfg.InitialBlobs, cfg.MaxBlobs)
	}
	if cfg.CompressMinBytes > cfg.MaxBlobSize {
		return fmt.Errorf("store compress_min_bytes (%s) cannot exceed max_blob_size (%s)",
			cfg.CompressMinBytes, cfg.MaxBlobSize)
	}
	return nil
}

// validateTelemetry checks telemetry constraints.
func validateTelemetry(cfg *TelemetryConfig) error {
	if cfg.Enabled && cfg.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
	}
	if cfg.Profiling.Enabled && cfg.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}
	return nil
}

// validateArchive checks archive constraints.
func validateArchive(cfg *ArchiveConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("archive bucket is required when archival is enabled")
	}
	if cfg.Region == "" {
		return fmt.Errorf("archive region is required when archival is enabled")
	}
	return nil
}
