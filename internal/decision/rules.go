package decision

import (
	"strings"

	"docverify/internal/extraction"
	"docverify/pkg/platform/similarity"
)

// MatchName compares an extracted name with a normalized reference name. Both must be
// non-empty and score at least threshold.
func MatchName(extracted, refName string, threshold int) (bool, int) {
	if extracted == "" || refName == "" {
		return false, 0
	}
	score := similarity.Score(strings.ToLower(extracted), refName)
	return score >= threshold, score
}

// MatchDOB compares two YYYY-MM-DD dates. Under DOBYearOnly a differing date with the
// same year still matches and yearOnly is reported.
func MatchDOB(extracted, refDOB string, policy DOBPolicy) (matched, yearOnly bool) {
	if extracted == "" || refDOB == "" {
		return false, false
	}
	if extracted == refDOB {
		return true, false
	}
	if policy == DOBYearOnly && yearOf(extracted) != "" && yearOf(extracted) == yearOf(refDOB) {
		return true, true
	}
	return false, false
}

// MatchGender is a case-insensitive equality of non-empty values.
func MatchGender(extracted, refGender string) bool {
	if extracted == "" || refGender == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(extracted), refGender)
}

// MatchIDNumber is an exact equality of non-empty values.
func MatchIDNumber(extracted, refID string) bool {
	if extracted == "" || refID == "" {
		return false
	}
	return extracted == refID
}

// EvaluateDecision accepts only a complete record whose four fields all matched.
// This is pure domain logic - no I/O, no side effects.
func EvaluateDecision(extracted extraction.Record, result MatchResult) Decision {
	if !extracted.IsComplete() {
		return DecisionManualReview
	}
	if result.NameMatch && result.DOBMatch && result.GenderMatch && result.IDMatch {
		return DecisionAccept
	}
	return DecisionManualReview
}

// BuildReasons lists a reason per failed field in fixed order, or the single
// all-matched reason when nothing failed.
func BuildReasons(result MatchResult) []Reason {
	var reasons []Reason
	if !result.NameMatch {
		reasons = append(reasons, ReasonNameMismatch)
	}
	if !result.DOBMatch {
		reasons = append(reasons, ReasonDOBMismatch)
	}
	if !result.GenderMatch {
		reasons = append(reasons, ReasonGenderMismatch)
	}
	if !result.IDMatch {
		reasons = append(reasons, ReasonIDNumberMismatch)
	}
	if len(reasons) == 0 {
		return []Reason{ReasonAllMatched}
	}
	return reasons
}

func yearOf(date string) string {
	year, _, ok := strings.Cut(date, "-")
	if !ok || len(year) != 4 {
		return ""
	}
	return year
}
