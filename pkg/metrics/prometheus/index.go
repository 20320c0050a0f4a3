package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blobpool/blobpool/pkg/index"
	"github.com/blobpool/blobpool/pkg/metrics"
)

func init() {
	metrics.RegisterIndexMetricsConstructor(NewIndexMetrics)
}

// indexMetrics is the Prometheus implementation of index.Metrics.
type indexMetrics struct {
	size *prometheus.GaugeVec
}

// NewIndexMetrics returns the registry-backed index recorder; without
// InitRegistry it returns nil.
func NewIndexMetrics() index.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &indexMetrics{
		size: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blobpool_index_size_bytes",
				Help: "On-disk size of the record index by component",
			},
			[]string{"component"}, // "lsm", "vlog"
		),
	}
}

// RecordSize records the index's on-disk footprint.
func (m *indexMetrics) RecordSize(lsm int64, vlog int64) {
	if m == nil {
		return
	}
	m.size.WithLabelValues("lsm").Set(float64(lsm))
	m.size.WithLabelValues("vlog").Set(float64(vlog))
}
