package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "size must be a positive integer"}
	if err.Error() != "size must be a positive integer" {
		t.Errorf("Error() = %q, want %q", err.Error(), "size must be a positive integer")
	}
}

func TestValidationError_As(t *testing.T) {
	wrapped := fmt.Errorf("place order: %w", &ValidationError{Message: "bad"})
	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("errors.As should find the wrapped ValidationError")
	}
	if ve.Message != "bad" {
		t.Errorf("Message = %q, want %q", ve.Message, "bad")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrUnknownTask,
		ErrUnknownMethod,
		ErrUnknownEntrust,
		ErrAllSuspended,
		ErrNoFeasibleWeights,
		ErrMissingPrice,
		ErrUnsupportedAlgo,
		ErrSequenceOverflow,
		ErrEntrustConflict,
		ErrUniverseFrozen,
		ErrOrderNotCancellable,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
