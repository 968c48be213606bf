package driven

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// SettingsStore keeps the single AI settings record. Implementations may
// encrypt API keys at rest but hand them back in clear.
type SettingsStore interface {
	// GetAISettings fails with domain.ErrNotFound until the first save.
	GetAISettings(ctx context.Context) (*domain.AISettings, error)

	// SaveAISettings replaces the record and stamps UpdatedAt.
	SaveAISettings(ctx context.Context, settings *domain.AISettings) error
}
