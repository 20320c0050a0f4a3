package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blobpool/blobpool/pkg/metrics"
	"github.com/blobpool/blobpool/pkg/store"
)

func init() {
	metrics.RegisterStoreMetricsConstructor(NewStoreMetrics)
}

// storeMetrics is the Prometheus implementation of store.Metrics.
type storeMetrics struct {
	putTotal       *prometheus.CounterVec
	putBytes       prometheus.Histogram
	putStoredBytes prometheus.Histogram
	putDuration    prometheus.Histogram
	getTotal       prometheus.Counter
	getBytes       prometheus.Histogram
	getDuration    prometheus.Histogram
	verifyFailures prometheus.Counter
	records        prometheus.Gauge
}

// NewStoreMetrics returns the registry-backed store recorder, or nil
// while metrics are disabled.
func NewStoreMetrics() store.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	// Payload size buckets shared by the put and get paths.
	sizeBuckets := []float64{
		1024,     // 1KB
		4096,     // 4KB
		32768,    // 32KB
		131072,   // 128KB
		524288,   // 512KB
		1048576,  // 1MB
		4194304,  // 4MB
		16777216, // 16MB
	}

	return &storeMetrics{
		putTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blobpool_store_put_total",
				Help: "Total number of records written by codec",
			},
			[]string{"codec"}, // "raw", "zstd"
		),
		putBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blobpool_store_put_bytes",
				Help:    "Distribution of uncompressed record sizes written",
				Buckets: sizeBuckets,
			},
		),
		putStoredBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blobpool_store_put_stored_bytes",
				Help:    "Distribution of on-disk record sizes after encoding",
				Buckets: sizeBuckets,
			},
		),
		putDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "blobpool_store_put_duration_milliseconds",
				Help: "Duration of record writes in milliseconds, including lease acquisition",
				Buckets: []float64{
					0.1, // 100us
					0.5, // 500us
					1,   // 1ms
					5,   // 5ms
					10,  // 10ms
					50,  // 50ms
					100, // 100ms
					500, // 500ms - blocked on a lease
				},
			},
		),
		getTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blobpool_store_get_total",
				Help: "Total number of records read",
			},
		),
		getBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blobpool_store_get_bytes",
				Help:    "Distribution of record sizes read",
				Buckets: sizeBuckets,
			},
		),
		getDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "blobpool_store_get_duration_milliseconds",
				Help: "Duration of record reads in milliseconds",
				Buckets: []float64{
					0.1, // 100us
					0.5, // 500us
					1,   // 1ms
					5,   // 5ms
					10,  // 10ms
					50,  // 50ms
					100, // 100ms
				},
			},
		),
		verifyFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blobpool_store_verify_failures_total",
				Help: "Total number of digest mismatches detected on read",
			},
		),
		records: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "blobpool_store_records",
				Help: "Current number of indexed records",
			},
		),
	}
}

// ObservePut records a completed write.
func (m *storeMetrics) ObservePut(bytes int64, stored int64, codec string, duration time.Duration) {
	if m == nil {
		return
	}
	m.putTotal.WithLabelValues(codec).Inc()
	m.putBytes.Observe(float64(bytes))
	m.putStoredBytes.Observe(float64(stored))
	m.putDuration.Observe(duration.Seconds() * 1000)
}

// ObserveGet records a completed read.
func (m *storeMetrics) ObserveGet(bytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.getTotal.Inc()
	m.getBytes.Observe(float64(bytes))
	m.getDuration.Observe(duration.Seconds() * 1000)
}

// ObserveVerifyFailure records a digest mismatch.
func (m *storeMetrics) ObserveVerifyFailure() {
	if m == nil {
		return
	}
	m.verifyFailures.Inc()
}

// RecordRecords records the current number of indexed records.
func (m *storeMetrics) RecordRecords(count int) {
	if m == nil {
		return
	}
	m.records.Set(float64(count))
}
