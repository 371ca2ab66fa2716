// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware and consumers set the values; services and the workflow read
// them without importing net/http or the Kafka client.
//
//	ctx = requestcontext.WithRequestID(ctx, "req-123")
//	caseID := requestcontext.CaseID(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	id "kycflow/pkg/domain"
)

type (
	requestIDKey   struct{}
	caseIDKey      struct{}
	requestTimeKey struct{}
)

// RequestID retrieves the inbound request or message ID.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// CaseID retrieves the case being processed, if any.
func CaseID(ctx context.Context) id.CaseID {
	if caseID, ok := ctx.Value(caseIDKey{}).(id.CaseID); ok {
		return caseID
	}
	return ""
}

// WithCaseID scopes a context to one case.
func WithCaseID(ctx context.Context, caseID id.CaseID) context.Context {
	return context.WithValue(ctx, caseIDKey{}, caseID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
