package metrics

import (
	"github.com/blobpool/blobpool/pkg/lease"
)

// NewLeaseMetrics builds the Prometheus implementation of lease.Metrics.
// It returns nil when metrics are off (InitRegistry never ran), and the
// lease manager treats a nil recorder as a no-op:
//
//	metrics.InitRegistry()
//	mgr.SetMetrics(metrics.NewLeaseMetrics())
func NewLeaseMetrics() lease.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusLeaseMetrics()
}

// Installed by pkg/metrics/prometheus from its init. Importing that
// package here directly would close an import cycle.
var newPrometheusLeaseMetrics func() lease.Metrics

// RegisterLeaseMetricsConstructor installs the constructor that
// NewLeaseMetrics calls once metrics are enabled.
func RegisterLeaseMetricsConstructor(constructor func() lease.Metrics) {
	newPrometheusLeaseMetrics = constructor
}
