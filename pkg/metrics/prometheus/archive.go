package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blobpool/blobpool/pkg/archive"
	"github.com/blobpool/blobpool/pkg/metrics"
)

func init() {
	metrics.RegisterArchiveMetricsConstructor(NewArchiveMetrics)
}

// archiveMetrics is the Prometheus implementation of archive.Metrics.
type archiveMetrics struct {
	uploads        prometheus.Counter
	uploadBytes    prometheus.Histogram
	uploadDuration prometheus.Histogram
	skips          prometheus.Counter
	failures       prometheus.Counter
}

// NewArchiveMetrics returns the registry-backed archive recorder, nil
// when metrics never came up.
func NewArchiveMetrics() archive.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &archiveMetrics{
		uploads: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blobpool_archive_uploads_total",
				Help: "Total number of sealed blobs uploaded to object storage",
			},
		),
		uploadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "blobpool_archive_upload_bytes",
				Help: "Distribution of uploaded blob sizes",
				Buckets: []float64{
					1048576,    // 1MB
					16777216,   // 16MB
					67108864,   // 64MB
					268435456,  // 256MB
					1073741824, // 1GB - typical full blob
					4294967296, // 4GB
				},
			},
		),
		uploadDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "blobpool_archive_upload_duration_milliseconds",
				Help: "Duration of blob uploads in milliseconds",
				Buckets: []float64{
					100,    // 100ms
					500,    // 500ms
					1000,   // 1s
					5000,   // 5s
					10000,  // 10s
					60000,  // 1m
					300000, // 5m - large blobs on slow links
				},
			},
		),
		skips: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blobpool_archive_skips_total",
				Help: "Total number of blobs skipped because they were already archived",
			},
		),
		failures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blobpool_archive_failures_total",
				Help: "Total number of failed blob uploads",
			},
		),
	}
}

// ObserveUpload records a completed blob upload.
func (m *archiveMetrics) ObserveUpload(bytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.uploads.Inc()
	m.uploadBytes.Observe(float64(bytes))
	m.uploadDuration.Observe(duration.Seconds() * 1000)
}

// ObserveSkip records a blob skipped as already archived.
func (m *archiveMetrics) ObserveSkip() {
	if m == nil {
		return
	}
	m.skips.Inc()
}

// ObserveFailure records a failed upload attempt.
func (m *archiveMetrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}
