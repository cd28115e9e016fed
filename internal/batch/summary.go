package batch

import (
	"math"
	"time"

	"docverify/internal/decision"
)

// Summary aggregates a batch. Rates are percentages rounded to two decimals; field
// match rates are over documents that produced an outcome.
type Summary struct {
	Total        int `json:"total"`
	Accepted     int `json:"accepted"`
	ManualReview int `json:"manual_review"`
	Failed       int `json:"failed"`

	AcceptedPct     float64 `json:"accepted_pct"`
	ManualReviewPct float64 `json:"manual_review_pct"`
	FailedPct       float64 `json:"failed_pct"`

	NameMatchPct   float64 `json:"name_match_pct"`
	DOBMatchPct    float64 `json:"dob_match_pct"`
	GenderMatchPct float64 `json:"gender_match_pct"`
	IDMatchPct     float64 `json:"aadhaar_match_pct"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time of the batch.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Summarize counts decisions and field matches across results.
func Summarize(results []Result, started, finished time.Time) Summary {
	s := Summary{Total: len(results), StartedAt: started, FinishedAt: finished}

	var name, dob, gender, id int
	for _, r := range results {
		if r.Failed() || r.Outcome == nil {
			s.Failed++
			continue
		}
		m := r.Outcome.Match
		if m.Decision == decision.DecisionAccept {
			s.Accepted++
		} else {
			s.ManualReview++
		}
		name += boolInt(m.NameMatch)
		dob += boolInt(m.DOBMatch)
		gender += boolInt(m.GenderMatch)
		id += boolInt(m.IDMatch)
	}

	s.AcceptedPct = pct(s.Accepted, s.Total)
	s.ManualReviewPct = pct(s.ManualReview, s.Total)
	s.FailedPct = pct(s.Failed, s.Total)

	processed := s.Accepted + s.ManualReview
	s.NameMatchPct = pct(name, processed)
	s.DOBMatchPct = pct(dob, processed)
	s.GenderMatchPct = pct(gender, processed)
	s.IDMatchPct = pct(id, processed)
	return s
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*10000/float64(total)) / 100
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
