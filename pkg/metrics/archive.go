package metrics

import (
	"github.com/blobpool/blobpool/pkg/archive"
)

// NewArchiveMetrics returns the Prometheus archive.Metrics
// implementation, nil when metrics are disabled.
func NewArchiveMetrics() archive.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusArchiveMetrics()
}

// Installed by pkg/metrics/prometheus from its init; importing it here
// would be circular.
var newPrometheusArchiveMetrics func() archive.Metrics

// RegisterArchiveMetricsConstructor installs the constructor that
// NewArchiveMetrics calls once metrics are enabled.
func RegisterArchiveMetricsConstructor(constructor func() archive.Metrics) {
	newPrometheusArchiveMetrics = constructor
}
