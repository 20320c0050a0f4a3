package config

import (
	"github.com/blobpool/blobpool/pkg/archive"
	"github.com/blobpool/blobpool/pkg/index"
	"github.com/blobpool/blobpool/pkg/lease"
	"github.com/blobpool/blobpool/pkg/metrics"
	"github.com/blobpool/blobpool/pkg/store"
)

// MetricsResult holds the metric sinks created from configuration.
//
// When metrics are disabled every field is nil: the instrumented packages
// accept nil sinks and skip collection entirely, and no metrics server is
// started.
type MetricsResult struct {
	// Server is the Prometheus HTTP server, nil when metrics are disabled.
	Server *metrics.Server

	// Per-package metric sinks, nil when metrics are disabled.
	Store   store.Metrics
	Lease   lease.Metrics
	Index   index.Metrics
	Archive archive.Metrics
}

// InitializeMetrics initializes the metrics registry and creates the metric
// sinks according to cfg.Metrics.
//
// Returns a zero MetricsResult when metrics are disabled. The Prometheus
// collectors only exist when the prometheus metrics subpackage has been
// blank-imported, which the server binaries do.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}

	metrics.InitRegistry()

	return MetricsResult{
		Server:  metrics.NewServer(cfg.Metrics.Port),
		Store:   metrics.NewStoreMetrics(),
		Lease:   metrics.NewLeaseMetrics(),
		Index:   metrics.NewIndexMetrics(),
		Archive: metrics.NewArchiveMetrics(),
	}
}
