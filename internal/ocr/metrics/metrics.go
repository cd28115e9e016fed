package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the OCR line source.
type Metrics struct {
	// Recognize call latency
	RecognizeLatency prometheus.Histogram

	// Recognize failures by category
	RecognizeErrors *prometheus.CounterVec

	// Line cache lookups by result
	CacheLookups *prometheus.CounterVec

	// Engine handles currently checked out of the pool
	PoolInUse prometheus.Gauge
}

// New creates a new Metrics instance with all OCR metrics registered.
func New() *Metrics {
	return &Metrics{
		RecognizeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_ocr_recognize_duration_seconds",
			Help:    "Duration of OCR recognize calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),

		RecognizeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_ocr_recognize_errors_total",
			Help: "Total OCR recognize failures by category",
		}, []string{"category"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_ocr_cache_lookups_total",
			Help: "Total OCR line cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"

		PoolInUse: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docverify_ocr_pool_in_use",
			Help: "OCR engine handles currently checked out",
		}),
	}
}

// ObserveRecognize records the duration of a recognize call.
func (m *Metrics) ObserveRecognize(d time.Duration) {
	if m != nil {
		m.RecognizeLatency.Observe(d.Seconds())
	}
}

// IncrementError records a failed recognize call.
func (m *Metrics) IncrementError(category string) {
	if m != nil {
		m.RecognizeErrors.WithLabelValues(category).Inc()
	}
}

// IncrementCache records a cache lookup result.
func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// AddInUse adjusts the checked out handle gauge.
func (m *Metrics) AddInUse(delta float64) {
	if m != nil {
		m.PoolInUse.Add(delta)
	}
}
