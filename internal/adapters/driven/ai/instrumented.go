package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/metrics"
)

type instrumentedEmbedding struct {
	driven.EmbeddingService
	provider string
	metrics  *metrics.Metrics
}

func (i *instrumentedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	out, err := i.EmbeddingService.Embed(ctx, texts)
	i.metrics.ObserveProvider(i.provider, "embed", err, time.Since(start))
	return out, err
}

func (i *instrumentedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	start := time.Now()
	out, err := i.EmbeddingService.EmbedQuery(ctx, query)
	i.metrics.ObserveProvider(i.provider, "embed_query", err, time.Since(start))
	return out, err
}

type instrumentedCompletion struct {
	driven.CompletionService
	provider string
	metrics  *metrics.Metrics
}

func (i *instrumentedCompletion) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	start := time.Now()
	out, err := i.CompletionService.Complete(ctx, prompt)
	i.metrics.ObserveProvider(i.provider, "complete", err, time.Since(start))
	return out, err
}
