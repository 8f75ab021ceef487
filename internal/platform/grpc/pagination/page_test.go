package pagination

import (
	"errors"
	"math"
	"testing"
)

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 50, Max: 500}
	tests := []struct {
		in   int32
		want int
	}{
		{in: 0, want: 50},
		{in: -3, want: 50},
		{in: 10, want: 10},
		{in: 900, want: 500},
	}
	for _, tt := range tests {
		if got := ClampPageSize(tt.in, cfg); got != tt.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	for _, seq := range []uint64{0, 1, 42, math.MaxUint64} {
		got, err := DecodeCursor(EncodeCursor(seq))
		if err != nil {
			t.Fatalf("decode %d: %v", seq, err)
		}
		if got != seq {
			t.Fatalf("expected %d, got %d", seq, got)
		}
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	seq, err := DecodeCursor("  ")
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if seq != 0 {
		t.Fatalf("expected 0, got %d", seq)
	}
}

func TestDecodeCursorRejectsForeignTokens(t *testing.T) {
	for _, token := range []string{"!!!", "c2VxOg", "b3RoZXI6MQ", "c2VxOmFiYw"} {
		if _, err := DecodeCursor(token); !errors.Is(err, ErrInvalidPageToken) {
			t.Fatalf("token %q: expected ErrInvalidPageToken, got %v", token, err)
		}
	}
}
