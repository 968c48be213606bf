package ai

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/metrics"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct {
	metrics *metrics.Metrics
}

// NewFactory creates a new AI service factory. m may be nil.
func NewFactory(m *metrics.Metrics) *Factory {
	return &Factory{metrics: m}
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		e, err := NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
		if err != nil {
			return nil, err
		}
		svc = e
	case domain.AIProviderOllama:
		e, err := NewOllamaEmbedding(settings.BaseURL, settings.Model)
		if err != nil {
			return nil, err
		}
		svc = e
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}

	if f.metrics != nil {
		svc = &instrumentedEmbedding{EmbeddingService: svc, provider: string(settings.Provider), metrics: f.metrics}
	}
	return NewRateLimitedEmbedding(svc, settings.RequestsPerSecond), nil
}

// CreateCompletionService creates a completion service from settings.
// Ollama is reached through its OpenAI-compatible /v1 endpoint.
func (f *Factory) CreateCompletionService(settings *domain.CompletionSettings) (driven.CompletionService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.CompletionService
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		c, err := NewOpenAICompletion(settings.APIKey, settings.Model, settings.BaseURL, settings.Temperature)
		if err != nil {
			return nil, err
		}
		svc = c
	case domain.AIProviderOllama:
		base := settings.BaseURL
		if base == "" {
			base = defaultOllamaURL
		}
		model := settings.Model
		if model == "" {
			model = defaultOllamaChatModel
		}
		svc = newOpenAICompletion(string(domain.AIProviderOllama), "ollama", model,
			strings.TrimRight(base, "/")+"/v1", settings.Temperature)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}

	if f.metrics != nil {
		svc = &instrumentedCompletion{CompletionService: svc, provider: string(settings.Provider), metrics: f.metrics}
	}
	return svc, nil
}
