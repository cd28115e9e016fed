package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"docverify/internal/reference"
)

// IDNumberDigits is the digit count of a national ID number.
const IDNumberDigits = 12

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s]{3,}$`)
	dobPattern  = regexp.MustCompile(`(\d{2}[/-]\d{2}[/-]\d{4})`)

	// nameExclusions are card captions and field labels that pass the letters-only test.
	nameExclusions = []string{
		"dob", "birth", "male", "female", "government",
		"uidai", "year", "india", "authority", "issue",
	}

	// issueKeywords mark lines carrying the card's issue date rather than the holder's DOB.
	issueKeywords = []string{"issue", "issued", "year of issue"}
)

// Gender values as emitted in Record.Gender.
const (
	GenderMale        = "Male"
	GenderFemale      = "Female"
	GenderTransgender = "Transgender"
)

// Classify returns every candidate field found in lines, in scan order. Name
// candidates carry their honorific-stripped value. Gender and ID number produce at
// most one candidate each: the first qualifying line.
func Classify(lines []RecognizedLine) []CandidateField {
	var (
		out       []CandidateField
		hasGender bool
		hasID     bool
	)

	for i, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)

		if name, ok := nameCandidate(text, lower); ok {
			out = append(out, CandidateField{Kind: FieldName, RawValue: name, Position: line.Position, Order: i})
		}

		if raw, ok := dobCandidate(text, lower); ok {
			out = append(out, CandidateField{Kind: FieldDOB, RawValue: raw, Position: line.Position, Order: i})
		}

		if !hasGender {
			if g, ok := genderOf(lower); ok {
				out = append(out, CandidateField{Kind: FieldGender, RawValue: g, Position: line.Position, Order: i})
				hasGender = true
			}
		}

		if !hasID {
			if digits := digitsOf(text); len(digits) == IDNumberDigits {
				out = append(out, CandidateField{Kind: FieldIDNumber, RawValue: digits, Position: line.Position, Order: i})
				hasID = true
			}
		}
	}

	return out
}

func nameCandidate(text, lower string) (string, bool) {
	if !namePattern.MatchString(text) || containsAny(lower, nameExclusions) {
		return "", false
	}
	name := reference.StripHonorific(text)
	if name == "" {
		return "", false
	}
	return name, true
}

func dobCandidate(text, lower string) (string, bool) {
	if containsAny(lower, issueKeywords) {
		return "", false
	}
	match := dobPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}

// genderOf tests "female" before "male" because the latter is a substring of the former.
func genderOf(lower string) (string, bool) {
	switch {
	case strings.Contains(lower, "transgender"):
		return GenderTransgender, true
	case strings.Contains(lower, "female"):
		return GenderFemale, true
	case strings.Contains(lower, "male"):
		return GenderMale, true
	default:
		return "", false
	}
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ValidIDNumber reports whether s is exactly IDNumberDigits ASCII digits.
func ValidIDNumber(s string) bool {
	if len(s) != IDNumberDigits {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
