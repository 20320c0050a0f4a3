package config

import (
	"strings"
	"time"

	"github.com/blobpool/blobpool/internal/bytesize"
	"github.com/blobpool/blobpool/pkg/api"
)

// setIfZero assigns def to dst when dst still holds its zero value, so
// explicit settings always win over defaults.
func setIfZero[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

// ApplyDefaults fills every unset field of cfg with its default. It runs
// after the file and environment layers, so a zero value means "not
// configured". Store.Path stays empty; it is required and validation
// rejects a config without it.
func ApplyDefaults(cfg *Config) {
	setIfZero(&cfg.ShutdownTimeout, 30*time.Second)

	setLoggingDefaults(&cfg.Logging)
	setTelemetryDefaults(&cfg.Telemetry)
	setStoreDefaults(&cfg.Store)
	setMetricsDefaults(&cfg.Metrics)
	setAPIDefaults(&cfg.API)
	setArchiveDefaults(&cfg.Archive)
}

func setLoggingDefaults(cfg *LoggingConfig) {
	setIfZero(&cfg.Level, "INFO")
	setIfZero(&cfg.Format, "text")
	setIfZero(&cfg.Output, "stdout")

	// The level may arrive in either case; the logger wants uppercase.
	cfg.Level = strings.ToUpper(cfg.Level)
}

func setTelemetryDefaults(cfg *TelemetryConfig) {
	setIfZero(&cfg.Endpoint, "localhost:4317")

	// An explicit 0.0 is indistinguishable from unset and comes back as
	// 1.0; disable tracing via Enabled rather than the rate.
	setIfZero(&cfg.SampleRate, 1.0)

	setIfZero(&cfg.Profiling.Endpoint, "http://localhost:4040")
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// setStoreDefaults leaves Path alone; the store directory has no
// sensible default.
func setStoreDefaults(cfg *StoreConfig) {
	setIfZero(&cfg.MaxBlobSize, 64*bytesize.MiB)
	setIfZero(&cfg.InitialBlobs, 1)
	setIfZero(&cfg.MaxBlobs, 64)
	setIfZero(&cfg.CompressMinBytes, 4*bytesize.KiB)
	setIfZero(&cfg.Index, "badger")
}

func setMetricsDefaults(cfg *MetricsConfig) {
	// The port only matters when the exposition server will actually run.
	if cfg.Enabled {
		setIfZero(&cfg.Port, 9090)
	}
}

// setAPIDefaults mirrors the defaults the api package applies when a
// server is built directly, so both paths agree.
func setAPIDefaults(cfg *api.APIConfig) {
	setIfZero(&cfg.Port, 8080)
	setIfZero(&cfg.ReadTimeout, 10*time.Second)
	setIfZero(&cfg.IdleTimeout, 60*time.Second)
	setIfZero(&cfg.RequestTimeout, 30*time.Second)
	setIfZero(&cfg.ArchiveTimeout, 10*time.Minute)
}

// setArchiveDefaults leaves Bucket and the credentials alone; when
// archival is enabled, validation insists on a bucket.
func setArchiveDefaults(cfg *ArchiveConfig) {
	setIfZero(&cfg.Region, "us-east-1")
	setIfZero(&cfg.Concurrency, 4)
}

// GetDefaultConfig builds a fully defaulted Config. The sample generator
// and tests start from it; the store path it carries is a placeholder the
// operator is expected to change.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Store: StoreConfig{Path: "/var/lib/blobpool"},
	}
	ApplyDefaults(cfg)
	return cfg
}
