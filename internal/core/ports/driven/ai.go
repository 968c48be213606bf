package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// EmbeddingService turns text into vectors. Failed calls come back as
// *domain.ProviderError and are never retried behind the caller's back.
type EmbeddingService interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single question.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions is zero until the first successful call when the model
	// is not one the client knows.
	Dimensions() int

	// Model is stamped on every embedding config created while this
	// service is active; runs and questions refuse a mismatching model.
	Model() string

	HealthCheck(ctx context.Context) error
	Close() error
}

// CompletionService answers an assembled prompt.
type CompletionService interface {
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
	Model() string
	Ping(ctx context.Context) error
	Close() error
}

// AIServiceFactory builds clients from stored settings. Both methods return
// nil, nil when the settings leave the provider unconfigured.
type AIServiceFactory interface {
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)
	CreateCompletionService(settings *domain.CompletionSettings) (CompletionService, error)
}
