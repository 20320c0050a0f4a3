package api

import "time"

// APIConfig holds the admin HTTP server settings. The zero value is
// usable once applyDefaults has run; NewServer calls it on its copy.
type APIConfig struct {
	// Enabled starts the server when true or nil. The pointer keeps
	// "absent from the config file" distinguishable from an explicit
	// false.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Port the server listens on. Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`

	// ReadTimeout caps reading a request, headers and body included.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`

	// IdleTimeout closes keep-alive connections that sit quiet too long.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`

	// RequestTimeout bounds the fast endpoints (health, status, blobs).
	// Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" json:"request_timeout"`

	// ArchiveTimeout bounds a POST /v1/archive run, which uploads whole
	// containers and can take minutes. The server's write timeout is left
	// unset so this per-route limit is the only bound.
	// Default: 10m
	ArchiveTimeout time.Duration `mapstructure:"archive_timeout" yaml:"archive_timeout" json:"archive_timeout"`
}

// IsEnabled reports whether the server should run. A nil Enabled counts
// as yes.
func (c *APIConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// applyDefaults replaces zero fields with the documented defaults.
func (c *APIConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.ArchiveTimeout == 0 {
		c.ArchiveTimeout = 10 * time.Minute
	}
}
