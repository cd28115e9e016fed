package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can apply
// different retention.
type EventCategory string

const (
	// CategoryCompliance covers verification outcomes. These are retained long term.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine processing events that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the verification pipeline. It never carries the raw ID
// number; SubjectIDHash is a SHA-256 of it for traceability.
type Event struct {
	ID            string        `json:"id"`
	Category      EventCategory `json:"category"`
	Timestamp     time.Time     `json:"timestamp"`
	Action        string        `json:"action"`
	ApplicantID   string        `json:"applicant_id,omitempty"`
	Decision      string        `json:"decision,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	SubjectIDHash string        `json:"subject_id_hash,omitempty"`
	RequestID     string        `json:"request_id,omitempty"`
	Subject       string        `json:"subject,omitempty"`
}

type AuditEvent string

const (
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventVerificationFailed    AuditEvent = "verification_failed"
	EventDocumentIdentified    AuditEvent = "document_identified"
	EventReferenceNotFound     AuditEvent = "reference_not_found"
	EventBatchCompleted        AuditEvent = "batch_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationCompleted: CategoryCompliance,
	EventDocumentIdentified:    CategoryCompliance,

	EventVerificationFailed: CategoryOperations,
	EventReferenceNotFound:  CategoryOperations,
	EventBatchCompleted:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// HashSubjectID returns the hex SHA-256 of an ID number, or "" for an empty one.
func HashSubjectID(idNumber string) string {
	if idNumber == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(idNumber))
	return hex.EncodeToString(sum[:])
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can be queried back.
type Reader interface {
	ListByApplicant(ctx context.Context, applicantID string) ([]Event, error)
}
