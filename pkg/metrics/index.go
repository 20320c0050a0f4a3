package metrics

import (
	"github.com/blobpool/blobpool/pkg/index"
)

// NewIndexMetrics returns the Prometheus index.Metrics implementation.
// With metrics disabled it returns nil and the index records nothing.
func NewIndexMetrics() index.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusIndexMetrics()
}

// Installed by pkg/metrics/prometheus from its init; a direct import
// here would be circular.
var newPrometheusIndexMetrics func() index.Metrics

// RegisterIndexMetricsConstructor installs the constructor that
// NewIndexMetrics calls once metrics are enabled.
func RegisterIndexMetricsConstructor(constructor func() index.Metrics) {
	newPrometheusIndexMetrics = constructor
}
