package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount", -3, "must be positive")

	if err.Error() != "invalid amount: must be positive" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsValidation(err) {
		t.Error("expected IsValidation to match")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("plain error must not match IsValidation")
	}

	wrapped := fmt.Errorf("submit: %w", err)
	if !IsValidation(wrapped) {
		t.Error("expected IsValidation to match through wrapping")
	}
}

func TestStorageError(t *testing.T) {
	base := errors.New("connection refused")

	t.Run("transient", func(t *testing.T) {
		err := NewStorageError("save quote", base)
		if !IsTransient(err) {
			t.Error("expected transient")
		}
		if !errors.Is(err, base) {
			t.Error("expected to wrap the cause")
		}
		if err.Error() != "storage save quote: connection refused" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("fatal", func(t *testing.T) {
		err := NewFatalStorageError("insert trade", base)
		if IsTransient(err) {
			t.Error("expected non-transient")
		}
	})

	t.Run("sentinels are not transient", func(t *testing.T) {
		if IsTransient(ErrStaleQuote) || IsTransient(ErrPermissionDenied) {
			t.Error("sentinel errors must not be transient")
		}
	})
}
