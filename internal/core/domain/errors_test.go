package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrInvalidConfig,
		ErrProvider,
		ErrIndexInProgress,
		ErrAlreadyIndexed,
		ErrNotReady,
		ErrInvalidTransition,
		ErrInvalidProvider,
		ErrServiceUnavailable,
	}

	for i, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("book b-1 config c-1: %w", sentinel)
			assert.ErrorIs(t, wrapped, sentinel)

			for j, other := range sentinels {
				if i != j {
					assert.NotErrorIs(t, wrapped, other)
				}
			}
		})
	}
}

func TestProviderError_MatchesCategoryAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("embed batch 2: %w", NewProviderError("openai", "embed", cause))

	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "embed batch 2: openai embed: connection refused")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "openai", pe.Provider)
	assert.Equal(t, "embed", pe.Op)
}

func TestProviderError_ContextCause(t *testing.T) {
	err := NewProviderError("ollama", "complete", context.DeadlineExceeded)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrProvider)
}
