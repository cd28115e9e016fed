package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module.
type Metrics struct {
	// Decision outcomes by decision
	DecisionOutcome *prometheus.CounterVec

	// Field mismatches by reason
	FieldMismatch *prometheus.CounterVec

	// Name similarity scores
	NameScore prometheus.Histogram

	// DOB matches granted by the year-only policy
	YearOnlyDOB prometheus.Counter
}

// New creates a new Metrics instance with all decision module metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_decision_outcomes_total",
			Help: "Total decision outcomes by decision",
		}, []string{"decision"}), // decision: "Accept", "ManualReview"

		FieldMismatch: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_decision_field_mismatches_total",
			Help: "Total field mismatches by reason",
		}, []string{"reason"}),

		NameScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_decision_name_score",
			Help:    "Name similarity score between extracted and reference names",
			Buckets: []float64{10, 30, 50, 60, 70, 80, 90, 100},
		}),

		YearOnlyDOB: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docverify_decision_dob_year_only_total",
			Help: "Total DOB matches granted on year only",
		}),
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(decision string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(decision).Inc()
	}
}

// IncrementMismatch records a failed field.
func (m *Metrics) IncrementMismatch(reason string) {
	if m != nil {
		m.FieldMismatch.WithLabelValues(reason).Inc()
	}
}

// ObserveNameScore records a name similarity score.
func (m *Metrics) ObserveNameScore(score int) {
	if m != nil {
		m.NameScore.Observe(float64(score))
	}
}

// IncrementYearOnlyDOB records a relaxed DOB match.
func (m *Metrics) IncrementYearOnlyDOB() {
	if m != nil {
		m.YearOnlyDOB.Inc()
	}
}
