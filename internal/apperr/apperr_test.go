package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	base := Provider("embeddings unreachable", errors.New("connection refused"))
	wrapped := fmt.Errorf("search: %w", base)

	if !HasCode(base, CodeProvider) {
		t.Error("HasCode() = false for direct error")
	}
	if !HasCode(wrapped, CodeProvider) {
		t.Error("HasCode() = false for wrapped error")
	}
	if HasCode(wrapped, CodeStore) {
		t.Error("HasCode() matched wrong code")
	}
	if HasCode(errors.New("plain"), CodeProvider) {
		t.Error("HasCode() matched unclassified error")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{InvalidRequest("bad limit"), 400},
		{Unauthorized("no user"), 401},
		{Forbidden("not the owner"), 403},
		{NotFound("bookmark"), 404},
		{Provider("down", nil), 502},
		{Store("write failed", nil), 500},
		{fmt.Errorf("wrap: %w", Forbidden("nope")), 403},
		{errors.New("plain"), 500},
	}

	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Store("upsert failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not reach the cause")
	}
}
