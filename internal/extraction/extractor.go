package extraction

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"docverify/internal/reference"
	"docverify/pkg/platform/similarity"
)

const (
	// MinBirthYear is the earliest plausible year of birth.
	MinBirthYear = 1900
	// MinHolderAge rejects dates closer to today than this many years, which are
	// almost always issue or print dates.
	MinHolderAge = 5

	candidateDOBLayout = "02-01-2006"
)

// Extractor resolves candidate fields into a Record. It holds no per-document state
// and is safe for concurrent use.
type Extractor struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the time source used for the plausible birth-year window.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor using the wall clock unless WithClock is given.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// Extract classifies lines and resolves one value per field. ref may be nil, in which
// case the first name candidate is taken. Inputs are not modified.
func (e *Extractor) Extract(lines []RecognizedLine, ref *reference.Record) Record {
	candidates := Classify(lines)

	var (
		names []CandidateField
		dobs  []CandidateField
		rec   Record
	)
	for _, c := range candidates {
		switch c.Kind {
		case FieldName:
			names = append(names, c)
		case FieldDOB:
			dobs = append(dobs, c)
		case FieldGender:
			rec.Gender = c.RawValue
		case FieldIDNumber:
			rec.IDNumber = c.RawValue
		}
	}

	refName := ""
	if ref != nil {
		refName = ref.FullName()
	}
	if best, ok := SelectName(names, refName); ok {
		rec.Name = best.RawValue
	}
	rec.DOB = ResolveDOB(dobs, e.now())

	e.logger.LogAttrs(context.Background(), slog.LevelDebug, "fields extracted",
		slog.Int("lines", len(lines)),
		slog.Int("name_candidates", len(names)),
		slog.Int("dob_candidates", len(dobs)),
		slog.Int("completeness", rec.Completeness()),
	)
	return rec
}

// SelectName picks the name candidate that best matches refName. Scores are
// similarity.Score against the lower-cased candidate; the highest wins and ties keep
// the earliest candidate. An empty refName selects the first candidate.
func SelectName(candidates []CandidateField, refName string) (CandidateField, bool) {
	if len(candidates) == 0 {
		return CandidateField{}, false
	}
	if refName == "" {
		return candidates[0], true
	}

	best := candidates[0]
	best.Score = similarity.Score(strings.ToLower(best.RawValue), refName)
	for _, c := range candidates[1:] {
		c.Score = similarity.Score(strings.ToLower(c.RawValue), refName)
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

// ResolveDOB returns the first candidate in reading order that parses to a plausible
// date of birth, formatted YYYY-MM-DD, or "" when none does.
func ResolveDOB(candidates []CandidateField, now time.Time) string {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b CandidateField) int {
		return a.Position.Compare(b.Position)
	})

	for _, c := range ordered {
		if dob, ok := ParseCandidateDOB(c.RawValue, now); ok {
			return dob
		}
	}
	return ""
}

// ParseCandidateDOB parses a dd-mm-yyyy or dd/mm/yyyy string and checks that the
// year lies in [MinBirthYear, now.Year()-MinHolderAge].
func ParseCandidateDOB(raw string, now time.Time) (string, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")
	t, err := time.Parse(candidateDOBLayout, normalized)
	if err != nil {
		return "", false
	}
	if t.Year() < MinBirthYear || t.Year() > now.Year()-MinHolderAge {
		return "", false
	}
	return t.Format(reference.DateLayout), true
}
