package types

import (
	"errors"
	"fmt"
)

var (
	// ErrInputMismatch marks a whole-batch contract violation such as
	// candidates and metrics of different lengths.
	ErrInputMismatch = errors.New("input contract violation")

	// ErrProviderFailure marks an embedding provider error, timeout or
	// malformed response.
	ErrProviderFailure = errors.New("upstream provider failure")
)

// ProviderError wraps a failure returned by a named embedding provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports ErrProviderFailure so callers can branch on errors.Is.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}

// NewInputMismatch builds an ErrInputMismatch describing two lengths.
func NewInputMismatch(what string, got, want int) error {
	return fmt.Errorf("%w: %s length %d does not match %d", ErrInputMismatch, what, got, want)
}
