package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"docverify/internal/reference"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore keeps applicants in insertion order.
type InMemoryStore struct {
	mu         sync.RWMutex
	order      []string
	applicants map[string]*Applicant
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{applicants: make(map[string]*Applicant)}
}

// Save inserts or replaces an applicant keyed by ApplicantID.
func (s *InMemoryStore) Save(_ context.Context, rec reference.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.applicants[rec.ApplicantID]; ok {
		existing.Record = rec
		return nil
	}
	s.order = append(s.order, rec.ApplicantID)
	s.applicants[rec.ApplicantID] = &Applicant{Record: rec, Status: StatusPending}
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]reference.Record, error) {
	return s.filter(func(*Applicant) bool { return true }), nil
}

// ListPending returns applicants whose document has not been verified yet.
func (s *InMemoryStore) ListPending(_ context.Context) ([]reference.Record, error) {
	return s.filter(func(a *Applicant) bool { return a.Status != StatusVerified }), nil
}

// FindByIDNumber looks an applicant up by the plain (decoded) ID number.
func (s *InMemoryStore) FindByIDNumber(_ context.Context, idNumber string) (*reference.Record, error) {
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return nil, sentinel.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.order {
		a := s.applicants[key]
		if a.DecodedIDNumber() == idNumber {
			rec := a.Record
			return &rec, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) MarkVerified(_ context.Context, applicantID, refNumber string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applicants[applicantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Status = StatusVerified
	a.RefNumber = refNumber
	a.VerifiedAt = &at
	return nil
}

// Get returns a copy of the stored applicant.
func (s *InMemoryStore) Get(_ context.Context, applicantID string) (*Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.applicants[applicantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) filter(keep func(*Applicant) bool) []reference.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reference.Record, 0, len(s.order))
	for _, key := range s.order {
		if a := s.applicants[key]; keep(a) {
			out = append(out, a.Record)
		}
	}
	return slices.Clip(out)
}
