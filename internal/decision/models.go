package decision

import (
	"encoding/json"
	"strings"
)

// Decision is the verification recommendation.
type Decision string

const (
	DecisionAccept       Decision = "Accept"
	DecisionManualReview Decision = "ManualReview"
)

// Reason explains a decision. Mismatch reasons are reported in the fixed order
// name, dob, gender, aadhaar.
type Reason string

const (
	ReasonNameMismatch     Reason = "name mismatch"
	ReasonDOBMismatch      Reason = "dob mismatch"
	ReasonGenderMismatch   Reason = "gender mismatch"
	ReasonIDNumberMismatch Reason = "aadhaar mismatch"
	ReasonAllMatched       Reason = "all fields matched"
)

// DOBPolicy selects how dates of birth are compared. One policy is fixed per Engine.
type DOBPolicy string

const (
	// DOBStrict requires identical YYYY-MM-DD values.
	DOBStrict DOBPolicy = "strict"
	// DOBYearOnly also accepts dates that differ but share the same year.
	DOBYearOnly DOBPolicy = "year_only"
)

// IsValid reports whether p is a known policy.
func (p DOBPolicy) IsValid() bool {
	return p == DOBStrict || p == DOBYearOnly
}

// MatchResult is the per-field comparison and the resulting recommendation.
type MatchResult struct {
	NameMatch   bool
	DOBMatch    bool
	GenderMatch bool
	IDMatch     bool

	// NameScore is the similarity that NameMatch was decided on.
	NameScore int
	// DOBYearOnly is set when DOBMatch was granted by the year-only policy.
	DOBYearOnly bool

	Decision Decision
	Reasons  []Reason
}

// Reason joins the reasons the way they are reported on the wire.
func (r MatchResult) Reason() string {
	parts := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		parts[i] = string(reason)
	}
	return strings.Join(parts, ", ")
}

type matchResultJSON struct {
	NameMatch   bool     `json:"name_match"`
	DOBMatch    bool     `json:"dob_match"`
	GenderMatch bool     `json:"gender_match"`
	IDMatch     bool     `json:"aadhaar_match"`
	Decision    Decision `json:"decision"`
	Reason      string   `json:"reason"`
}

// MarshalJSON emits the result with reasons joined by ", ".
func (r MatchResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchResultJSON{
		NameMatch:   r.NameMatch,
		DOBMatch:    r.DOBMatch,
		GenderMatch: r.GenderMatch,
		IDMatch:     r.IDMatch,
		Decision:    r.Decision,
		Reason:      r.Reason(),
	})
}

// UnmarshalJSON reads the wire form back, splitting reason on ", ".
func (r *MatchResult) UnmarshalJSON(data []byte) error {
	var wire matchResultJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = MatchResult{
		NameMatch:   wire.NameMatch,
		DOBMatch:    wire.DOBMatch,
		GenderMatch: wire.GenderMatch,
		IDMatch:     wire.IDMatch,
		Decision:    wire.Decision,
		Reasons:     ParseReasons(wire.Reason),
	}
	return nil
}

// ParseReasons splits a joined reason string.
func ParseReasons(joined string) []Reason {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ", ")
	out := make([]Reason, len(parts))
	for i, p := range parts {
		out[i] = Reason(strings.TrimSpace(p))
	}
	return out
}
