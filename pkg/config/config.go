package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/blobpool/blobpool/internal/bytesize"
	"github.com/blobpool/blobpool/pkg/api"
)

// Config is the static configuration of the blobpool server.
//
// It covers logging, tracing, the store (directory, blob sizing,
// compression, index backend), the admin API, the Prometheus endpoint and
// S3 archival. Values come from three layers, highest precedence first:
//
//  1. Environment variables (BLOBPOOL_*)
//  2. The configuration file (YAML or TOML)
//  3. Built-in defaults
type Config struct {
	// Logging controls log level, format and destination.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds graceful shutdown. Once it expires the
	// process exits whether or not in-flight requests have drained.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Store configures the blob store directory and allocation behavior.
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Metrics configures the Prometheus exposition server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the admin HTTP API.
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Archive configures S3 cold storage for sealed blobs.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
}

// StoreConfig configures the blob store.
type StoreConfig struct {
	// Path is the store directory (required). The store creates its blob
	// containers, record index and manifest inside it.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// MaxBlobSize is the per-blob size ceiling.
	// Supports human-readable formats: "64Mi", "256MB", "1Gi".
	// Must be a whole number of MiB. Default: 64Mi
	MaxBlobSize bytesize.ByteSize `mapstructure:"max_blob_size" yaml:"max_blob_size,omitempty"`

	// InitialBlobs is how many containers a fresh store starts with.
	// Default: 1
	InitialBlobs int `mapstructure:"initial_blobs" validate:"omitempty,min=1" yaml:"initial_blobs"`

	// MaxBlobs caps how many containers the store may ever hold.
	// Default: 64
	MaxBlobs int `mapstructure:"max_blobs" validate:"omitempty,min=1" yaml:"max_blobs"`

	// Compression enables zstd compression for payloads of at least
	// CompressMinBytes. Default: false
	Compression bool `mapstructure:"compression" yaml:"compression"`

	// CompressMinBytes is the smallest payload considered for compression.
	// Supports human-readable formats: "4Ki", "16KB". Default: 4Ki
	CompressMinBytes bytesize.ByteSize `mapstructure:"compress_min_bytes" yaml:"compress_min_bytes,omitempty"`

	// VerifyOnRead re-hashes each payload on read and fails the read when
	// the stored digest does not match. Default: false
	VerifyOnRead bool `mapstructure:"verify_on_read" yaml:"verify_on_read"`

	// Index selects the record index backend.
	// Valid values: badger (persistent), memory (testing only)
	// Default: badger
	Index string `mapstructure:"index" validate:"omitempty,oneof=badger memory" yaml:"index"`
}

// ArchiveConfig configures cold storage for sealed blobs.
//
// When Enabled is true the server uploads sealed blob containers to the
// configured S3 bucket, either on demand (POST /v1/archive) or via bpctl.
// The endpoint may point at AWS or any S3-compatible service (MinIO,
// Localstack); set ForcePathStyle for the latter.
type ArchiveConfig struct {
	// Enabled controls whether sealed blobs can be archived.
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is a custom S3 endpoint URL. Leave empty for AWS.
	// Example: http://localhost:4566
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// Region is the S3 region. Default: us-east-1
	Region string `mapstructure:"region" yaml:"region"`

	// AccessKeyID is the static S3 access key.
	// Override: BLOBPOOL_ARCHIVE_ACCESS_KEY_ID
	AccessKeyID string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`

	// SecretAccessKey is the static S3 secret key.
	// Override: BLOBPOOL_ARCHIVE_SECRET_ACCESS_KEY
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	// Bucket receives the archived containers (required when enabled).
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	// Keys look like <prefix>/<store-id>/blob-00042.dat
	Prefix string `mapstructure:"prefix" yaml:"prefix,omitempty"`

	// ForcePathStyle switches to path-style bucket addressing, needed by
	// most S3-compatible services. Default: false
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// Concurrency is the number of parallel container uploads. Default: 4
	Concurrency int `mapstructure:"concurrency" validate:"omitempty,min=1" yaml:"concurrency"`
}

// LoggingConfig controls how the server logs.
type LoggingConfig struct {
	// Level is the minimum level that gets written.
	// One of DEBUG, INFO, WARN, ERROR in either case.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format selects text or json output.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing. Spans are exported over
// OTLP gRPC to whatever collector listens at Endpoint (Jaeger, Tempo, an
// otel-collector).
type TelemetryConfig struct {
	// Enabled turns span export on. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the collector address as host:port.
	// Default: localhost:4317, the standard OTLP gRPC port
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure dials the collector without TLS. Default: true, which
	// suits a collector on localhost; turn it off for anything remote.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces to keep, from 0.0 (none)
	// through 1.0 (all). Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling configures Pyroscope continuous profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling. When enabled
// the process streams CPU and memory profiles to a Pyroscope server for
// flame graph analysis.
type ProfilingConfig struct {
	// Enabled turns continuous profiling on. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL.
	// Default: http://localhost:4040
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect. Valid values: cpu,
	// alloc_objects, alloc_space, inuse_objects, inuse_space, goroutines,
	// mutex_count, mutex_duration, block_count, block_duration.
	// Default: everything except the mutex and block profiles
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus exposition server. When
// disabled no registry is created and instrumentation stays a no-op.
type MetricsConfig struct {
	// Enabled turns metrics collection and the /metrics endpoint on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the exposition port. Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load reads the configuration file at configPath, layers BLOBPOOL_*
// environment variables on top, fills anything still unset with defaults
// and validates the result. An empty configPath searches the default
// location; when no file exists there either, the defaults are returned
// as-is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad is Load with friendlier errors for the CLI. A missing config
// file explains how to create one instead of surfacing a bare open error.
func MustLoad(configPath string) (*Config, error) {
	switch {
	case configPath == "" && !DefaultConfigExists():
		return nil, fmt.Errorf("no configuration file at the default location (%s)\n\n"+
			"Generate one first:\n"+
			"  blobpool init\n\n"+
			"or point at an existing file:\n"+
			"  blobpool <command> --config /path/to/config.yaml",
			GetDefaultConfigPath())
	case configPath == "":
		configPath = GetDefaultConfigPath()
	default:
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file %s does not exist\n\n"+
				"Generate it with:\n"+
				"  blobpool init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed. The file mode is 0600 since the archive section may hold S3
// credentials.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper wires the precedence chain. Environment variables use the
// BLOBPOOL_ prefix with dots mapped to underscores, so store.max_blob_size
// becomes BLOBPOOL_STORE_MAX_BLOB_SIZE.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BLOBPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	// No explicit file: search $XDG_CONFIG_HOME/blobpool (or ~/.config).
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile attempts the read and reports whether a file was found.
// A missing file is not an error; the caller falls back to defaults.
// Viper signals not-found with its own error type when searching config
// paths but with a plain *os.PathError when an explicit file was set.
func readConfigFile(v *viper.Viper) (bool, error) {
	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &notFound), os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
}

var (
	byteSizeType = reflect.TypeOf(bytesize.ByteSize(0))
	durationType = reflect.TypeOf(time.Duration(0))
)

// configDecodeHook converts config file scalars into the richer types the
// Config struct uses: strings parse as "64Mi" or "30s", bare numbers count
// bytes or nanoseconds.
func configDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		switch to {
		case byteSizeType:
			return decodeByteSize(data)
		case durationType:
			return decodeDuration(data)
		default:
			return data, nil
		}
	}
}

// decodeByteSize accepts strings ("1Gi", "500MB") and any numeric type.
// YAML hands integers over as float64, so that case matters in practice.
func decodeByteSize(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case string:
		return bytesize.ParseByteSize(v)
	case int:
		return bytesize.ByteSize(v), nil
	case int64:
		return bytesize.ByteSize(v), nil
	case uint64:
		return bytesize.ByteSize(v), nil
	case float64:
		return bytesize.ByteSize(v), nil
	default:
		return data, nil
	}
}

// decodeDuration accepts strings ("30s", "5m") and raw numbers, which are
// taken as nanoseconds.
func decodeDuration(data interface{}) (interface{}, error) {
	switch v := data.(type) {
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	case float64:
		return time.Duration(v), nil
	default:
		return data, nil
	}
}

// getConfigDir resolves the configuration directory. $XDG_CONFIG_HOME
// wins, then ~/.config; when even the home directory is unknown the
// current directory serves as a last resort.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blobpool")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "blobpool")
}

// GetDefaultConfigPath is where Load looks when no --config flag is
// given: config.yaml under the blobpool config directory.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir exposes the config directory for the init command.
func GetConfigDir() string {
	return getConfigDir()
}
