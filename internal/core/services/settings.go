package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-graphrag/internal/runtime"
)

// Ensure settingsService implements SettingsService
var _ driving.SettingsService = (*settingsService)(nil)

// settingsService implements the SettingsService interface
type settingsService struct {
	settingsStore driven.SettingsStore
	aiFactory     driven.AIServiceFactory
	services      *runtime.Services
	logger        *slog.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	settingsStore driven.SettingsStore,
	aiFactory driven.AIServiceFactory,
	services *runtime.Services,
	logger *slog.Logger,
) driving.SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsService{
		settingsStore: settingsStore,
		aiFactory:     aiFactory,
		services:      services,
		logger:        logger,
	}
}

// GetAISettings retrieves the current AI configuration
func (s *settingsService) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	return s.settingsStore.GetAISettings(ctx)
}

// UpdateAISettings updates AI configuration and hot-reloads services
func (s *settingsService) UpdateAISettings(ctx context.Context, req driving.UpdateAISettingsRequest) (*driving.AISettingsStatus, error) {
	aiSettings, err := s.settingsStore.GetAISettings(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get ai settings: %w", err)
		}
		aiSettings = &domain.AISettings{}
	}

	if req.Embedding != nil {
		aiSettings.Embedding = domain.EmbeddingSettings{
			Provider:          req.Embedding.Provider,
			Model:             req.Embedding.Model,
			APIKey:            keepKey(req.Embedding.APIKey, req.Embedding.Provider, aiSettings.Embedding.Provider, aiSettings.Embedding.APIKey),
			BaseURL:           req.Embedding.BaseURL,
			RequestsPerSecond: req.Embedding.RequestsPerSecond,
		}
	}

	if req.Completion != nil {
		aiSettings.Completion = domain.CompletionSettings{
			Provider:    req.Completion.Provider,
			Model:       req.Completion.Model,
			APIKey:      keepKey(req.Completion.APIKey, req.Completion.Provider, aiSettings.Completion.Provider, aiSettings.Completion.APIKey),
			BaseURL:     req.Completion.BaseURL,
			Temperature: req.Completion.Temperature,
		}
	}

	if err := aiSettings.Validate(); err != nil {
		return nil, err
	}

	aiSettings.UpdatedAt = time.Now()

	if err := s.settingsStore.SaveAISettings(ctx, aiSettings); err != nil {
		return nil, err
	}

	return activateAI(ctx, aiSettings, s.aiFactory, s.services, s.logger), nil
}

// keepKey lets a client resubmit settings without the masked key. The stored
// key survives only while the provider is unchanged.
func keepKey(submitted string, provider, storedProvider domain.AIProvider, storedKey string) string {
	if submitted == "" && provider == storedProvider {
		return storedKey
	}
	return submitted
}

// RestoreAISettings brings the AI services up from stored settings at
// startup. When nothing has been stored yet and defaults configure at least
// one provider, the defaults are saved first.
func RestoreAISettings(
	ctx context.Context,
	store driven.SettingsStore,
	factory driven.AIServiceFactory,
	services *runtime.Services,
	defaults *domain.AISettings,
	logger *slog.Logger,
) (*driving.AISettingsStatus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	aiSettings, err := store.GetAISettings(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if defaults == nil || (!defaults.Embedding.IsConfigured() && !defaults.Completion.IsConfigured()) {
			return activateAI(ctx, &domain.AISettings{}, factory, services, logger), nil
		}
		if err := defaults.Validate(); err != nil {
			return nil, fmt.Errorf("default ai settings: %w", err)
		}
		aiSettings = defaults
		aiSettings.UpdatedAt = time.Now()
		if err := store.SaveAISettings(ctx, aiSettings); err != nil {
			return nil, fmt.Errorf("save default ai settings: %w", err)
		}
		logger.Info("seeded ai settings from configuration",
			"embedding", aiSettings.Embedding.Provider,
			"completion", aiSettings.Completion.Provider)
	case err != nil:
		return nil, fmt.Errorf("get ai settings: %w", err)
	}

	return activateAI(ctx, aiSettings, factory, services, logger), nil
}

// activateAI builds the configured services and swaps them into services.
// A provider that cannot be built or reached is logged and left unavailable.
func activateAI(
	ctx context.Context,
	aiSettings *domain.AISettings,
	factory driven.AIServiceFactory,
	services *runtime.Services,
	logger *slog.Logger,
) *driving.AISettingsStatus {
	status := &driving.AISettingsStatus{}

	if aiSettings.Embedding.IsConfigured() {
		embSvc, err := factory.CreateEmbeddingService(&aiSettings.Embedding)
		if err != nil {
			logger.Warn("failed to create embedding service", "provider", aiSettings.Embedding.Provider, "error", err)
		} else if err := services.ValidateAndSetEmbedding(ctx, embSvc); err != nil {
			logger.Warn("embedding service health check failed", "provider", aiSettings.Embedding.Provider, "error", err)
		} else {
			status.Embedding = driving.AIServiceStatus{
				Available:  true,
				Provider:   aiSettings.Embedding.Provider,
				Model:      embSvc.Model(),
				Dimensions: embSvc.Dimensions(),
			}
		}
	} else {
		services.SetEmbeddingService(nil)
	}

	if aiSettings.Completion.IsConfigured() {
		compSvc, err := factory.CreateCompletionService(&aiSettings.Completion)
		if err != nil {
			logger.Warn("failed to create completion service", "provider", aiSettings.Completion.Provider, "error", err)
		} else if err := services.ValidateAndSetCompletion(ctx, compSvc); err != nil {
			logger.Warn("completion service health check failed", "provider", aiSettings.Completion.Provider, "error", err)
		} else {
			status.Completion = driving.AIServiceStatus{
				Available: true,
				Provider:  aiSettings.Completion.Provider,
				Model:     compSvc.Model(),
			}
		}
	} else {
		services.SetCompletionService(nil)
	}

	caps := services.Capabilities()
	status.CanIndex = caps.CanIndex()
	status.CanAnswer = caps.CanAnswer()
	status.Missing = caps.Missing(domain.CapabilityEmbedding | domain.CapabilityCompletion)
	return status
}

// GetAIStatus returns the current status of AI services
func (s *settingsService) GetAIStatus(ctx context.Context) (*driving.AISettingsStatus, error) {
	aiSettings, _ := s.settingsStore.GetAISettings(ctx)

	caps := s.services.Capabilities()
	status := &driving.AISettingsStatus{
		CanIndex:  caps.CanIndex(),
		CanAnswer: caps.CanAnswer(),
		Missing:   caps.Missing(domain.CapabilityEmbedding | domain.CapabilityCompletion),
	}

	if embSvc := s.services.EmbeddingService(); embSvc != nil {
		status.Embedding = driving.AIServiceStatus{
			Available:  true,
			Model:      embSvc.Model(),
			Dimensions: embSvc.Dimensions(),
		}
		if aiSettings != nil {
			status.Embedding.Provider = aiSettings.Embedding.Provider
		}
	}

	if compSvc := s.services.CompletionService(); compSvc != nil {
		status.Completion = driving.AIServiceStatus{
			Available: true,
			Model:     compSvc.Model(),
		}
		if aiSettings != nil {
			status.Completion.Provider = aiSettings.Completion.Provider
		}
	}

	return status, nil
}

// TestConnection health-checks whichever clients are installed.
func (s *settingsService) TestConnection(ctx context.Context) error {
	embSvc, releaseEmb := s.services.AcquireEmbedding()
	defer releaseEmb()
	compSvc, releaseComp := s.services.AcquireCompletion()
	defer releaseComp()

	if embSvc == nil && compSvc == nil {
		return fmt.Errorf("%w: no ai services configured", domain.ErrServiceUnavailable)
	}
	if embSvc != nil {
		if err := embSvc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding: %w", err)
		}
	}
	if compSvc != nil {
		if err := compSvc.Ping(ctx); err != nil {
			return fmt.Errorf("completion: %w", err)
		}
	}
	return nil
}
