package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/decision"
	"docverify/internal/verification/models"
	"docverify/pkg/platform/sentinel"
)

func TestInMemoryStore_UpsertsByIDNumber(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	first := &models.Outcome{ID: uuid.New(), IDNumber: "123412341234", Match: decision.MatchResult{Decision: decision.DecisionManualReview}}
	second := &models.Outcome{ID: uuid.New(), IDNumber: "123412341234", Match: decision.MatchResult{Decision: decision.DecisionAccept}}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.FindByIDNumber(ctx, "123412341234")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, decision.DecisionAccept, got.Match.Decision)
}

func TestInMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	assert.ErrorIs(t, s.Save(ctx, nil), sentinel.ErrInvalidState)
	assert.ErrorIs(t, s.Save(ctx, &models.Outcome{}), sentinel.ErrInvalidState)

	_, err := s.FindByIDNumber(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
