package ai

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Ensure RateLimitedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)

// RateLimitedEmbedding throttles outbound calls with a token bucket. Each
// Embed call takes one token regardless of batch size.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	bucket *rate.Limiter
}

// NewRateLimitedEmbedding wraps next. A non-positive rate returns next as is.
func NewRateLimitedEmbedding(next driven.EmbeddingService, perSecond float64) driven.EmbeddingService {
	if perSecond <= 0 {
		return next
	}
	burst := int(math.Ceil(perSecond))
	return &RateLimitedEmbedding{
		EmbeddingService: next,
		bucket:           rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Embed waits for a token, then delegates.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, texts)
}

// EmbedQuery waits for a token, then delegates.
func (r *RateLimitedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := r.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedQuery(ctx, query)
}
