package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for orientation selection.
type Metrics struct {
	// OCR passes by rotation
	Attempts *prometheus.CounterVec

	// Winning rotation per page
	Selected *prometheus.CounterVec

	// Completeness of the selected extraction
	Completeness prometheus.Histogram
}

// New creates a new Metrics instance with all orientation metrics registered.
func New() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_orientation_attempts_total",
			Help: "Total OCR passes by page rotation",
		}, []string{"rotation"}),

		Selected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_orientation_selected_total",
			Help: "Total pages by selected rotation",
		}, []string{"rotation"}),

		Completeness: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_orientation_completeness",
			Help:    "Number of fields extracted at the selected rotation",
			Buckets: []float64{0, 1, 2, 3, 4},
		}),
	}
}

// IncrementAttempt records one OCR pass at rotation.
func (m *Metrics) IncrementAttempt(rotation string) {
	if m != nil {
		m.Attempts.WithLabelValues(rotation).Inc()
	}
}

// ObserveSelection records the rotation and completeness chosen for a page.
func (m *Metrics) ObserveSelection(rotation string, completeness int) {
	if m != nil {
		m.Selected.WithLabelValues(rotation).Inc()
		m.Completeness.Observe(float64(completeness))
	}
}
