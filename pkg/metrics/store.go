package metrics

import (
	"github.com/blobpool/blobpool/pkg/store"
)

// NewStoreMetrics builds the Prometheus implementation of store.Metrics,
// or nil when metrics are disabled. The store skips all recording on nil.
func NewStoreMetrics() store.Metrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusStoreMetrics()
}

// Installed by pkg/metrics/prometheus from its init to avoid an import
// cycle with that package.
var newPrometheusStoreMetrics func() store.Metrics

// RegisterStoreMetricsConstructor installs the constructor that
// NewStoreMetrics calls once metrics are enabled.
func RegisterStoreMetricsConstructor(constructor func() store.Metrics) {
	newPrometheusStoreMetrics = constructor
}
