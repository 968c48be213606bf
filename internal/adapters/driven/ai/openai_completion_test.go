package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

func TestOpenAICompletion_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model       string  `json:"model"`
			Temperature float32 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 1e-6)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be terse", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  Alice went down the hole. [Chunk 1]\n"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	svc, err := NewOpenAICompletion("sk-test", "", server.URL, 0.2)
	require.NoError(t, err)

	answer, err := svc.Complete(context.Background(), domain.Prompt{System: "be terse", User: "Question: where?"})
	require.NoError(t, err)
	assert.Equal(t, "Alice went down the hole. [Chunk 1]", answer)
}

func TestOpenAICompletion_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	svc, err := NewOpenAICompletion("sk-test", "gpt-4o", server.URL, 0)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), domain.Prompt{User: "q"})
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestOpenAICompletion_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	svc, err := NewOpenAICompletion("sk-test", "gpt-4o", server.URL, 0)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), domain.Prompt{User: "q"})
	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "complete", perr.Op)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAICompletion_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"}]}`))
	}))
	defer server.Close()

	svc, err := NewOpenAICompletion("sk-test", "gpt-4o", server.URL, 0)
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, "gpt-4o", svc.Model())
	assert.NoError(t, svc.Close())
}

func TestNewOpenAICompletion_MissingKey(t *testing.T) {
	_, err := NewOpenAICompletion("", "gpt-4o", "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
