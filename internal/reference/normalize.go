package reference

import (
	"encoding/base64"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the canonical date-of-birth layout shared by extracted and
// reference records.
const DateLayout = "2006-01-02"

// dobLayouts are tried in order; the first that parses wins.
var dobLayouts = []string{
	DateLayout,
	"02-01-2006",
	"02/01/2006",
	"02-Jan-2006",
}

// honorificPattern requires a period or whitespace after the title so names such as
// "Mrinal" or "Smita" keep their leading letters.
var honorificPattern = regexp.MustCompile(`(?i)^(mrs|mr|ms|shri|smt)(\.\s*|\s+)`)

// StripHonorific removes one leading honorific from s and trims the result.
func StripHonorific(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(honorificPattern.ReplaceAllString(s, ""))
}

// NormalizeName collapses whitespace, strips a leading honorific and lower-cases.
func NormalizeName(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	return strings.ToLower(StripHonorific(collapsed))
}

// NormalizeGender lower-cases and trims a gender value.
func NormalizeGender(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeDOB converts a reference date of birth to YYYY-MM-DD. Applying it to its
// own output returns the same value.
func NormalizeDOB(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// DecodeIDNumber decodes a base64 ID number. Invalid input yields ("", false).
func DecodeIDNumber(encoded string) (string, bool) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

// EncodeIDNumber is the inverse of DecodeIDNumber.
func EncodeIDNumber(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}
