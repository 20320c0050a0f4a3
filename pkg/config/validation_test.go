package config

import (
	"strings"
	"testing"

	"github.com/blobpool/blobpool/internal/bytesize"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "INVALID" },
			wantErr: "oneof",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
		},
		{
			name:    "api port above range",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "max",
		},
		{
			name:   "negative api port",
			mutate: func(c *Config) { c.API.Port = -1 },
		},
		{
			name:    "missing store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "required",
		},
		{
			name:   "unknown index backend",
			mutate: func(c *Config) { c.Store.Index = "etcd" },
		},
		{
			name: "blob size below one MiB",
			mutate: func(c *Config) {
				c.Store.MaxBlobSize = 512 * bytesize.KiB
				c.Store.CompressMinBytes = 0
			},
			wantErr: "at least 1MiB",
		},
		{
			name:    "blob size not a whole MiB",
			mutate:  func(c *Config) { c.Store.MaxBlobSize = 64*bytesize.MiB + 1 },
			wantErr: "whole number of MiB",
		},
		{
			name: "initial blobs above max",
			mutate: func(c *Config) {
				c.Store.InitialBlobs = 8
				c.Store.MaxBlobs = 4
			},
			wantErr: "cannot exceed max_blobs",
		},
		{
			name: "compression floor above blob ceiling",
			mutate: func(c *Config) {
				c.Store.CompressMinBytes = 128 * bytesize.MiB
			},
			wantErr: "compress_min_bytes",
		},
		{
			name: "telemetry without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = ""
			},
			wantErr: "endpoint",
		},
		{
			name: "sample rate above one",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.SampleRate = 1.5
			},
		},
		{
			name: "archival without bucket",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Bucket = ""
			},
			wantErr: "bucket",
		},
		{
			name: "archival without region",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Bucket = "blobpool-archive"
				c.Archive.Region = ""
			},
			wantErr: "region",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("config validated despite bad value")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ArchiveWithBucket(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Archive.Enabled = true
	cfg.Archive.Bucket = "blobpool-archive"

	if err := Validate(cfg); err != nil {
		t.Errorf("archive config with bucket should validate, got: %v", err)
	}
}

func TestValidate_AcceptsBothLevelCases(t *testing.T) {
	for _, level := range []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("level %q rejected: %v", level, err)
		}

		// Validate never rewrites the config; normalization belongs to
		// ApplyDefaults.
		if cfg.Logging.Level != level {
			t.Errorf("level mutated from %q to %q", level, cfg.Logging.Level)
		}
	}
}

func TestApplyDefaults_NormalizesLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("got %q, want INFO", cfg.Logging.Level)
	}
}
