// Package metrics manages the process-wide Prometheus registry and the
// constructors for the domain metric sets.
//
// Metrics are opt-in: when InitRegistry is never called, every NewXMetrics
// constructor returns nil and the instrumented packages skip their metric
// calls entirely. The Prometheus implementations live in the prometheus
// subpackage and register themselves through the constructor hooks below,
// which keeps this package free of an import cycle with the packages it
// instruments.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
)

// InitRegistry creates the process-wide metrics registry. Call once at
// startup, before constructing any domain metrics. Go runtime and process
// collectors are registered automatically.
//
// Calling InitRegistry twice is a no-op.
func InitRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()

	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IsEnabled reports whether the registry has been initialized.
func IsEnabled() bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}
