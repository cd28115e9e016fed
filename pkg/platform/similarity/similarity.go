// Package similarity provides fuzzy string scores on a 0-100 integer scale.
//
// All scores are symmetric in their arguments. Empty input never scores above 0.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Ratio is fuzzywuzzy's ratio: 100 * 2M/T rounded half to even, where M counts
// runes in difflib matching blocks and T is the combined length. When the two
// argument orders disagree the higher score is returned.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	return percent(max(newMatcher(ra, rb).ratio(), newMatcher(rb, ra).ratio()))
}

// PartialRatio scores the shorter string against windows of the longer one that
// are aligned on their matching blocks, the way fuzzywuzzy's partial_ratio does.
//
// Example:
//
//	PartialRatio("rahul", "rahul sharma") // 100
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	if a == b {
		return 100
	}
	switch {
	case len(ra) < len(rb):
		return partial(ra, rb)
	case len(ra) > len(rb):
		return partial(rb, ra)
	default:
		return max(partial(ra, rb), partial(rb, ra))
	}
}

func partial(short, long []rune) int {
	best := 0.0
	for _, x := range newMatcher(short, long).blocks() {
		start := max(x.j-x.i, 0)
		end := min(start+len(short), len(long))
		r := newMatcher(short, long[start:end]).ratio()
		if r > 0.995 {
			return 100
		}
		best = max(best, r)
	}
	return percent(best)
}

func percent(r float64) int {
	return int(math.RoundToEven(100 * r))
}

// TokenSetRatio compares the token sets of a and b, so word order and repeated or
// extra tokens in one side do not penalize the score.
//
// Example:
//
//	TokenSetRatio("sharma rahul", "rahul kumar sharma") // 100
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	return max(Ratio(base, withA), Ratio(base, withB), Ratio(withA, withB))
}

// Score is the name-comparison score: the better of TokenSetRatio and PartialRatio
// over the case-folded, punctuation-free forms of a and b.
func Score(a, b string) int {
	pa, pb := normalize(a), normalize(b)
	return max(TokenSetRatio(pa, pb), PartialRatio(pa, pb))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(normalize(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// normalize lower-cases s, replaces anything that is not a letter or digit with a
// space and collapses runs of whitespace.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
