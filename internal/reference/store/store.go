// Package store persists applicant reference records.
package store

import (
	"time"

	"docverify/internal/reference"
)

// Status values for an applicant's document verification.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// Applicant is a reference record plus its verification bookkeeping.
type Applicant struct {
	reference.Record
	Status     string
	RefNumber  string
	VerifiedAt *time.Time
}
