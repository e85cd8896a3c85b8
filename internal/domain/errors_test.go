package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"jobflow/internal/domain"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"unauthorized", domain.Unauthorized("gate.require"), domain.KindUnauthorized},
		{"validation", domain.Validation("jobs.create", "company is required"), domain.KindValidation},
		{"not found", domain.NotFound("jobs.get"), domain.KindNotFound},
		{"conflict", domain.Conflict("auth.signup", "email taken"), domain.KindConflict},
		{"internal", domain.Internal("jobs.list", errors.New("boom")), domain.KindInternal},
		{"wrapped", fmt.Errorf("handler: %w", domain.NotFound("jobs.get")), domain.KindNotFound},
		{"plain error", errors.New("boom"), domain.KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %v; want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorIsMatchesSentinelByKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", domain.NotFound("connections.get"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Fatal("did not expect errors.Is to match ErrUnauthorized")
	}
}

func TestMessageOfHidesInternalDetail(t *testing.T) {
	err := domain.Internal("jobs.list", errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	if got := domain.MessageOf(err); got != "internal error" {
		t.Fatalf("MessageOf = %q; want generic message", got)
	}
	if got := domain.MessageOf(domain.Validation("jobs.create", "company is required")); got != "company is required" {
		t.Fatalf("MessageOf = %q", got)
	}
}
