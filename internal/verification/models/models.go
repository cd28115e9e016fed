// Package models holds the verification job and outcome types shared by the
// verification service, its stores and the batch runner.
package models

import (
	"time"

	"github.com/google/uuid"

	"docverify/internal/decision"
	"docverify/internal/extraction"
	"docverify/internal/orientation"
	"docverify/internal/reference"
)

// Job is one document to verify against one reference record.
type Job struct {
	Reference reference.Record
	// Location is a URL, a path relative to the document base URL, or a local path.
	// Empty means Reference.DocumentPath.
	Location string
}

// DocumentLocation returns the location to fetch for this job.
func (j Job) DocumentLocation() string {
	if j.Location != "" {
		return j.Location
	}
	return j.Reference.DocumentPath
}

// Status summarizes an outcome for display.
type Status string

const (
	StatusVerified    Status = "Verified"
	StatusNotVerified Status = "Not Verified"
)

// Outcome is the result of verifying one document.
type Outcome struct {
	ID          uuid.UUID
	ApplicantID string
	// IDNumber is the decoded reference ID number, or the extracted one when the
	// reference has none. Results are keyed on it.
	IDNumber       string
	Extracted      extraction.Record
	Match          decision.MatchResult
	Page           int
	Rotation       orientation.Rotation
	MeanConfidence float64
	RefNumber      string
	StartedAt      time.Time
	ProcessedAt    time.Time
}

// Status reports Verified for accepted outcomes.
func (o Outcome) Status() Status {
	if o.Match.Decision == decision.DecisionAccept {
		return StatusVerified
	}
	return StatusNotVerified
}

// Duration is the wall time spent producing the outcome.
func (o Outcome) Duration() time.Duration {
	return o.ProcessedAt.Sub(o.StartedAt)
}
