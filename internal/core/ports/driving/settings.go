package driving

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// SettingsService owns the embedding and completion provider choice.
// Saving settings swaps the live clients without a restart; runs and
// questions already in flight keep the clients they started with.
type SettingsService interface {
	// GetAISettings returns stored settings with API keys intact. Callers
	// facing the network must mask them.
	GetAISettings(ctx context.Context) (*domain.AISettings, error)

	// UpdateAISettings merges req over the stored settings. A nil section
	// is left alone, and a blank api_key keeps the stored key.
	UpdateAISettings(ctx context.Context, req UpdateAISettingsRequest) (*AISettingsStatus, error)

	GetAIStatus(ctx context.Context) (*AISettingsStatus, error)

	// TestConnection health-checks the installed clients. It fails with
	// domain.ErrServiceUnavailable when neither is installed.
	TestConnection(ctx context.Context) error
}

type UpdateAISettingsRequest struct {
	Embedding  *EmbeddingSettingsInput  `json:"embedding,omitempty"`
	Completion *CompletionSettingsInput `json:"completion,omitempty"`
}

// EmbeddingSettingsInput selects the model every new embedding config is
// stamped with. RequestsPerSecond of zero means unthrottled.
type EmbeddingSettingsInput struct {
	Provider          domain.AIProvider `json:"provider"`
	Model             string            `json:"model"`
	APIKey            string            `json:"api_key"`
	BaseURL           string            `json:"base_url,omitempty"`
	RequestsPerSecond float64           `json:"requests_per_second,omitempty"`
}

type CompletionSettingsInput struct {
	Provider    domain.AIProvider `json:"provider"`
	Model       string            `json:"model"`
	APIKey      string            `json:"api_key"`
	BaseURL     string            `json:"base_url,omitempty"`
	Temperature float32           `json:"temperature"`
}

// AISettingsStatus tells the UI which pipeline actions are usable.
// Missing names the clients that still need configuring.
type AISettingsStatus struct {
	Embedding  AIServiceStatus `json:"embedding"`
	Completion AIServiceStatus `json:"completion"`
	CanIndex   bool            `json:"can_index"`
	CanAnswer  bool            `json:"can_answer"`
	Missing    []string        `json:"missing,omitempty"`
}

type AIServiceStatus struct {
	Available bool              `json:"available"`
	Provider  domain.AIProvider `json:"provider,omitempty"`
	Model     string            `json:"model,omitempty"`
	// Dimensions is reported for the embedding client only.
	Dimensions int `json:"dimensions,omitempty"`
}
