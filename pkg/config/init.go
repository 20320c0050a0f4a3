package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configTemplate is the commented configuration file written by
// 'blobpool init'. Values that parse as plain YAML scalars are spelled
// out; duration and byte-size values are left commented because they use
// the human-readable forms only the config loader understands.
const configTemplate = `# Blobpool Configuration File
#
# Generated by 'blobpool init'. Uncommented values are the defaults.
# Any value can be overridden with a BLOBPOOL_* environment variable,
# e.g. BLOBPOOL_LOGGING_LEVEL=DEBUG.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: "INFO"
  # Output format: text, json
  format: "text"
  # Destination: stdout, stderr, or a file path
  output: "stdout"

# Maximum time to wait for graceful shutdown
# shutdown_timeout: 30s

store:
  # Directory holding the blob containers, record index and manifest
  path: "/var/lib/blobpool"
  # Per-blob size ceiling, a whole number of MiB
  # max_blob_size: 64Mi
  # Containers created on first open
  initial_blobs: 1
  # Hard cap on pool growth
  max_blobs: 64
  # Compress payloads of at least compress_min_bytes with zstd
  compression: false
  # compress_min_bytes: 4Ki
  # Re-hash payloads on read and fail on digest mismatch
  verify_on_read: false
  # Record index backend: badger, memory
  index: "badger"

api:
  # Admin API server (status, blob listing, archive trigger)
  port: 8080
  # request_timeout: 30s
  # archive_timeout: 10m

metrics:
  # Prometheus metrics server on /metrics
  enabled: false
  port: 9090

archive:
  # Cold storage for sealed blob containers
  enabled: false
  # endpoint: "http://localhost:4566"
  region: "us-east-1"
  # access_key_id: ""
  # secret_access_key: ""
  # bucket: "blobpool-archive"
  # prefix: "blobpool"
  force_path_style: false
  concurrency: 4

telemetry:
  # OpenTelemetry tracing (OTLP)
  enabled: false
  endpoint: "localhost:4317"
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: "http://localhost:4040"
`

// InitConfig writes a fresh configuration file at the default location.
//
// Returns the path of the created file. Fails when a config file already
// exists there unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a fresh configuration file at the given path,
// creating parent directories as needed. Fails when the file already
// exists unless force is set.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the archive section may hold S3 credentials
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
