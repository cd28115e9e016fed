// Package extraction turns line-level OCR output of an identity document into a
// structured record of name, date of birth, gender and ID number.
package extraction

import "cmp"

// Position is the location of a recognized line on the page image, in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Compare orders positions top-to-bottom, then left-to-right.
func (p Position) Compare(other Position) int {
	if c := cmp.Compare(p.Y, other.Y); c != 0 {
		return c
	}
	return cmp.Compare(p.X, other.X)
}

// RecognizedLine is one line of text produced by the OCR line source.
type RecognizedLine struct {
	Text       string   `json:"text"`
	Position   Position `json:"position"`
	Confidence float64  `json:"confidence"`
}

// FieldKind identifies which record field a candidate may populate.
type FieldKind string

const (
	FieldName     FieldKind = "name"
	FieldDOB      FieldKind = "dob"
	FieldGender   FieldKind = "gender"
	FieldIDNumber FieldKind = "id_number"
)

// CandidateField is a line that passed the classification predicate for Kind.
// Order is the index of the source line in scan order. Score is only set for name
// candidates compared against a reference.
type CandidateField struct {
	Kind     FieldKind
	RawValue string
	Position Position
	Order    int
	Score    int
}

// Record is the resolved set of identity fields. Every field is either a validated
// value or the empty string.
type Record struct {
	Name     string `json:"Name"`
	Gender   string `json:"Gender"`
	DOB      string `json:"DOB"`
	IDNumber string `json:"Aadhaar Number"`
}

// Completeness counts the non-empty fields, 0 to 4.
func (r Record) Completeness() int {
	n := 0
	for _, v := range []string{r.Name, r.Gender, r.DOB, r.IDNumber} {
		if v != "" {
			n++
		}
	}
	return n
}

// IsComplete reports whether all four fields were extracted.
func (r Record) IsComplete() bool {
	return r.Completeness() == MaxCompleteness
}

// MaxCompleteness is the completeness of a record with every field populated.
const MaxCompleteness = 4
