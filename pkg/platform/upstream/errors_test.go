package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		category  ErrorCategory
		retryable bool
	}{
		{status: http.StatusNotFound, category: ErrorNotFound},
		{status: http.StatusForbidden, category: ErrorAuthentication},
		{status: http.StatusTooManyRequests, category: ErrorRateLimited, retryable: true},
		{status: http.StatusGatewayTimeout, category: ErrorTimeout, retryable: true},
		{status: http.StatusBadGateway, category: ErrorOutage, retryable: true},
		{status: http.StatusBadRequest, category: ErrorBadData},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus("ocr", tt.status, "")
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestFromTransport(t *testing.T) {
	assert.Equal(t, ErrorTimeout, FromTransport("ocr", context.DeadlineExceeded).Category)
	assert.Equal(t, ErrorInternal, FromTransport("ocr", context.Canceled).Category)
	assert.Equal(t, ErrorOutage, FromTransport("ocr", errors.New("connection refused")).Category)
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("page 1: %w", New(ErrorOutage, "ocr", "down", nil))

	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrorOutage, CategoryOf(err))
	assert.Equal(t, ErrorInternal, CategoryOf(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
