// Package requestcontext carries request-scoped identifiers through context so
// services can log and audit them without importing net/http.
//
// HTTP middleware sets the request ID and subject. The batch runner sets a batch ID
// and derives one request ID per document.
package requestcontext

import "context"

type (
	subjectKey   struct{}
	requestIDKey struct{}
	batchIDKey   struct{}
)

func value(ctx context.Context, key any) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// Subject is the authenticated caller (token subject), or "".
func Subject(ctx context.Context) string { return value(ctx, subjectKey{}) }

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// RequestID is the HTTP request ID or the per-document ID of a batch run.
func RequestID(ctx context.Context) string { return value(ctx, requestIDKey{}) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// BatchID identifies the batch run a document belongs to, or "" outside a batch.
func BatchID(ctx context.Context) string { return value(ctx, batchIDKey{}) }

func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, batchID)
}
