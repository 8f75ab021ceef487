package requestctx

import (
	"context"
	"testing"
)

func TestAccountIDRoundTrip(t *testing.T) {
	ctx := WithAccountID(context.Background(), 42)
	got, ok := AccountIDFromContext(ctx)
	if !ok || got != 42 {
		t.Fatalf("AccountIDFromContext = %d, %v, want 42, true", got, ok)
	}
}

func TestAccountIDZeroIsPresent(t *testing.T) {
	got, ok := AccountIDFromContext(WithAccountID(context.Background(), 0))
	if !ok || got != 0 {
		t.Fatalf("AccountIDFromContext = %d, %v, want 0, true", got, ok)
	}
}

func TestAccountIDMissing(t *testing.T) {
	if _, ok := AccountIDFromContext(context.Background()); ok {
		t.Fatal("expected no account id")
	}
	if _, ok := AccountIDFromContext(nil); ok {
		t.Fatal("expected no account id for nil context")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(nil, "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("RequestIDFromContext = %q, want req-1", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("RequestIDFromContext = %q, want empty", got)
	}
}
