// Package store persists verification outcomes, one per ID number.
package store

import (
	"context"
	"sync"

	"docverify/internal/verification/models"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore keeps the latest outcome per ID number.
type InMemoryStore struct {
	mu       sync.RWMutex
	outcomes map[string]models.Outcome
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{outcomes: make(map[string]models.Outcome)}
}

// Save replaces any earlier outcome for the same ID number.
func (s *InMemoryStore) Save(_ context.Context, outcome *models.Outcome) error {
	if outcome == nil || outcome.IDNumber == "" {
		return sentinel.ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[outcome.IDNumber] = *outcome
	return nil
}

func (s *InMemoryStore) FindByIDNumber(_ context.Context, idNumber string) (*models.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.outcomes[idNumber]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &o, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outcomes), nil
}
