package handler

import (
	"math"
	"time"

	"docverify/internal/batch"
	"docverify/internal/verification/models"
)

const (
	notAvailable = "N/A"
	displayDOB   = "02-Jan-2006"
)

// OutcomeResponse is the HTTP response body for a verified document.
type OutcomeResponse struct {
	VerificationID  string  `json:"verification_id"`
	ApplicantID     string  `json:"auth_id"`
	Decision        string  `json:"decision"`
	Status          string  `json:"status"`
	Reason          string  `json:"reason"`
	OCRConfidence   float64 `json:"ocr_confidence"`
	ExtractedName   string  `json:"extracted_name"`
	ExtractedDOB    string  `json:"extracted_dob"`
	ExtractedGender string  `json:"extracted_gender"`
	ExtractedID     string  `json:"extracted_aadhaar"`
	RefNumber       string  `json:"aadhaar_refnum"`
	NameMatch       bool    `json:"name_match"`
	DOBMatch        bool    `json:"dob_match"`
	GenderMatch     bool    `json:"gender_match"`
	IDMatch         bool    `json:"aadhaar_match"`
	NameScore       int     `json:"name_score"`
	Page            int     `json:"page"`
	Rotation        int     `json:"rotation"`
	ProcessedAt     string  `json:"processed_at"`
}

// FromOutcome builds the response for o. Missing text fields are reported as "N/A".
func FromOutcome(o *models.Outcome) *OutcomeResponse {
	return &OutcomeResponse{
		VerificationID:  o.ID.String(),
		ApplicantID:     orNA(o.ApplicantID),
		Decision:        string(o.Match.Decision),
		Status:          string(o.Status()),
		Reason:          o.Match.Reason(),
		OCRConfidence:   math.Round(o.MeanConfidence*100) / 100,
		ExtractedName:   orNA(o.Extracted.Name),
		ExtractedDOB:    formatDOB(o.Extracted.DOB),
		ExtractedGender: orNA(o.Extracted.Gender),
		ExtractedID:     o.Extracted.IDNumber,
		RefNumber:       orNA(o.RefNumber),
		NameMatch:       o.Match.NameMatch,
		DOBMatch:        o.Match.DOBMatch,
		GenderMatch:     o.Match.GenderMatch,
		IDMatch:         o.Match.IDMatch,
		NameScore:       o.Match.NameScore,
		Page:            o.Page,
		Rotation:        int(o.Rotation),
		ProcessedAt:     o.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

// BatchResponse is the HTTP response body for POST /batch/run.
type BatchResponse struct {
	Message string        `json:"message"`
	Summary batch.Summary `json:"summary"`
	Results []batch.Row   `json:"results"`
}

func FromReport(r *batch.Report) *BatchResponse {
	return &BatchResponse{
		Message: "Batch verification completed",
		Summary: r.Summary,
		Results: r.Rows(),
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func formatDOB(dob string) string {
	if dob == "" {
		return notAvailable
	}
	t, err := time.Parse(time.DateOnly, dob)
	if err != nil {
		return dob
	}
	return t.Format(displayDOB)
}
