package protocol

import (
	"fmt"
	"testing"
)

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrNotReady,
		ErrBlocked,
		ErrNoResource,
		ErrOutOfRange,
		ErrInvalidTarget,
		ErrUnreadable,
		ErrBadRequest,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestIsCodeUnwraps(t *testing.T) {
	err := fmt.Errorf("move north: %w", Errorf(ErrBlocked, "occupied"))
	if !IsCode(err, ErrBlocked) {
		t.Fatalf("expected wrapped code to match")
	}
	if IsCode(err, ErrNotReady) {
		t.Fatalf("unexpected code match")
	}
	if got := Errorf(ErrNotReady, "cooldown %d", 3).Error(); got != "E_NOT_READY: cooldown 3" {
		t.Fatalf("Error()=%q", got)
	}
}

func TestErrorfUnknownCode(t *testing.T) {
	err := Errorf("E_NOT_DEFINED", "x")
	if err.Code != ErrInternal {
		t.Fatalf("code=%q", err.Code)
	}
	if err.Message != "E_NOT_DEFINED: x" {
		t.Fatalf("message=%q", err.Message)
	}
}
