package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "identical", a: "rahul sharma", b: "rahul sharma", expected: 100},
		{name: "empty left", a: "", b: "rahul", expected: 0},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "one substitution in ten", a: "abcdefghij", b: "abcdefghix", expected: 90},
		{name: "disjoint", a: "abc", b: "xyz", expected: 0},
		{name: "transliteration", a: "lakshmi", b: "laxmi", expected: 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Ratio(tt.a, tt.b))
		})
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "prefix", a: "rahul", b: "rahul sharma", expected: 100},
		{name: "infix", a: "sharma", b: "rahul sharma kumar", expected: 100},
		{name: "equal length falls back to ratio", a: "abcd", b: "abcx", expected: 75},
		{name: "window clipped at the end of the longer string", a: "rahul", b: "government of india", expected: 29},
		{name: "swapped tokens", a: "sharma rahul", b: "rahul sharma", expected: 67},
		{name: "suffix variant", a: "venkatesh", b: "venkatesan", expected: 89},
		{name: "empty", a: "", b: "rahul", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PartialRatio(tt.a, tt.b))
		})
	}
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "reordered tokens", a: "sharma rahul", b: "rahul sharma", expected: 100},
		{name: "extra middle name", a: "rahul sharma", b: "rahul kumar sharma", expected: 100},
		{name: "case and punctuation ignored", a: "RAHUL, SHARMA.", b: "rahul sharma", expected: 100},
		{name: "empty side", a: "   ", b: "rahul", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TokenSetRatio(tt.a, tt.b))
		})
	}

	t.Run("unrelated names stay below the name threshold", func(t *testing.T) {
		assert.Equal(t, 52, TokenSetRatio("priya verma", "rahul sharma"))
	})
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100, Score("RAHUL SHARMA", "rahul sharma"))
	assert.Equal(t, 100, Score("Rahul", "rahul kumar sharma"))
	assert.Equal(t, 0, Score("", "rahul sharma"))
}

// Values computed with fuzzywuzzy: max(fuzz.token_set_ratio, fuzz.partial_ratio).
func TestScoreMatchesFuzzywuzzy(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"mohd asif", "mohammad aasif", 78},
		{"sita ram", "seeta raam", 78},
		{"lakshmi", "laxmi", 67},
		{"RAHUL SHARNA", "rahul sharma", 92},
		{"anita desai", "anitha dessai", 92},
		{"mohammed", "mohd", 75},
		{"ramesh kumar", "rahul sharma", 50},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.a, tt.b))
		})
	}
}

func TestScoresAreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"rahul sharma", "rahul kumar sharma"},
		{"priya", "priya verma"},
		{"abcd", "abcx"},
		{"government of india", "rahul"},
		{"s kumari", "kumari s"},
		{"", "rahul"},
		{"anita desai", "anitha dessai"},
	}

	for _, p := range pairs {
		assert.Equal(t, Ratio(p[0], p[1]), Ratio(p[1], p[0]), "Ratio(%q, %q)", p[0], p[1])
		assert.Equal(t, PartialRatio(p[0], p[1]), PartialRatio(p[1], p[0]), "PartialRatio(%q, %q)", p[0], p[1])
		assert.Equal(t, TokenSetRatio(p[0], p[1]), TokenSetRatio(p[1], p[0]), "TokenSetRatio(%q, %q)", p[0], p[1])
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "Score(%q, %q)", p[0], p[1])
	}
}
