package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	// Verifications completed by decision
	Outcomes *prometheus.CounterVec

	// Pipeline failures by stage
	Failures *prometheus.CounterVec

	// End-to-end latency of a document verification
	Duration prometheus.Histogram

	// Pages rasterized per document
	Pages prometheus.Histogram

	// Reference number lookups by result
	RefNumLookups *prometheus.CounterVec
}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verification_outcomes_total",
			Help: "Total verifications completed by decision",
		}, []string{"decision"}),

		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verification_failures_total",
			Help: "Total verification failures by pipeline stage",
		}, []string{"stage"}), // stage: "fetch", "rasterize", "ocr", "identify", "persist"

		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_verification_duration_seconds",
			Help:    "End-to-end duration of a document verification",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),

		Pages: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_verification_document_pages",
			Help:    "Number of pages per verified document",
			Buckets: []float64{1, 2, 3, 4, 6, 10},
		}),

		RefNumLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_refnum_lookups_total",
			Help: "Total reference number lookups by result",
		}, []string{"result"}), // result: "ok", "error"
	}
}

// ObserveOutcome records a completed verification.
func (m *Metrics) ObserveOutcome(decision string, d time.Duration, pages int) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(decision).Inc()
	m.Duration.Observe(d.Seconds())
	m.Pages.Observe(float64(pages))
}

// IncrementFailure records a failure at stage.
func (m *Metrics) IncrementFailure(stage string) {
	if m != nil {
		m.Failures.WithLabelValues(stage).Inc()
	}
}

// IncrementRefNum records a reference number lookup result.
func (m *Metrics) IncrementRefNum(result string) {
	if m != nil {
		m.RefNumLookups.WithLabelValues(result).Inc()
	}
}
