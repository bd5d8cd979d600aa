package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestNewRequestIDReturnsUUID(t *testing.T) {
	id := NewRequestID()
	if id == "" {
		t.Fatal("expected non-empty request id")
	}

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected valid UUID, got %q: %v", id, err)
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := "abc-123"

	ctx = ContextWithRequestID(ctx, want)
	got := RequestIDFromContext(ctx)

	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRequestIDFromContextWhenMissingOrWrongType(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		got := RequestIDFromContext(context.Background())
		if got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), RequestIDKey, 42)
		got := RequestIDFromContext(ctx)
		if got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})
}

func TestRequestIDFromHeader(t *testing.T) {
	known := uuid.NewString()

	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{"missing", "", false},
		{"valid uuid", known, true},
		{"not a uuid", "session-7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set(RequestIDHeader, tt.header)
			}

			got := RequestIDFromHeader(h)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected UUID, got %q: %v", got, err)
			}
			if tt.reuse && got != tt.header {
				t.Fatalf("expected %q to be reused, got %q", tt.header, got)
			}
			if !tt.reuse && got == tt.header {
				t.Fatalf("expected a fresh id, got %q", got)
			}
		})
	}
}
