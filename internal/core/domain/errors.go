package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates an embedding configuration that must be rejected
	// before any pipeline work starts (bad chunk size/overlap, unknown strategy).
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProvider indicates an embedding or completion provider call failed
	ErrProvider = errors.New("provider error")

	// ErrIndexInProgress indicates an index run already holds the lock for a config
	ErrIndexInProgress = errors.New("index already in progress")

	// ErrAlreadyIndexed indicates the configuration already owns a chunk set
	ErrAlreadyIndexed = errors.New("configuration already indexed")

	// ErrNotReady indicates the configuration has not reached the ready state
	ErrNotReady = errors.New("configuration not ready")

	// ErrInvalidTransition indicates a pipeline step was requested out of order
	ErrInvalidTransition = errors.New("invalid pipeline transition")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ProviderError wraps a failed call to an embedding or completion provider.
// It matches both ErrProvider and the underlying cause with errors.Is.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}
