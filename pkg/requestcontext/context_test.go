package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessorsDefaultToEmpty(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, Subject(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, BatchID(ctx))
}

func TestAccessorsRoundTrip(t *testing.T) {
	ctx := WithSubject(context.Background(), "onboarding-service")
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithBatchID(ctx, "batch-7")

	assert.Equal(t, "onboarding-service", Subject(ctx))
	assert.Equal(t, "req-42", RequestID(ctx))
	assert.Equal(t, "batch-7", BatchID(ctx))
}

func TestKeysDoNotCollide(t *testing.T) {
	ctx := WithRequestID(context.Background(), "same")
	assert.Empty(t, Subject(ctx))
	assert.Empty(t, BatchID(ctx))
}
