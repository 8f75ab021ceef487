// Package requestctx carries per-request identity through a context.
package requestctx

import "context"

type accountIDContextKey struct{}

type requestIDContextKey struct{}

// WithAccountID stores the authenticated caller account in context.
func WithAccountID(ctx context.Context, accountID uint64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, accountIDContextKey{}, accountID)
}

// AccountIDFromContext returns the caller account stored in context.
func AccountIDFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	value, ok := ctx.Value(accountIDContextKey{}).(uint64)
	return value, ok
}

// WithRequestID stores the request correlation id in context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext returns the request correlation id stored in context.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDContextKey{}).(string)
	return value
}
