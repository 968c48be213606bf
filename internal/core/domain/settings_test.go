package domain

import (
	"errors"
	"testing"
)

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{
			name:     "empty provider",
			settings: EmbeddingSettings{Provider: "", Model: "test", APIKey: "key"},
			expected: false,
		},
		{
			name:     "openai without api key",
			settings: EmbeddingSettings{Provider: AIProviderOpenAI, Model: "test"},
			expected: false,
		},
		{
			name:     "openai with api key",
			settings: EmbeddingSettings{Provider: AIProviderOpenAI, Model: "test", APIKey: "sk-test"},
			expected: true,
		},
		{
			name:     "ollama without api key (ok)",
			settings: EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text", BaseURL: "http://localhost:11434"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCompletionSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings CompletionSettings
		expected bool
	}{
		{
			name:     "empty provider",
			settings: CompletionSettings{Model: "gpt-4o-mini", APIKey: "key"},
			expected: false,
		},
		{
			name:     "openai without api key",
			settings: CompletionSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini"},
			expected: false,
		},
		{
			name:     "openai with api key",
			settings: CompletionSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"},
			expected: true,
		},
		{
			name:     "ollama without api key (ok)",
			settings: CompletionSettings{Provider: AIProviderOllama, Model: "llama3"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	tests := []struct {
		provider AIProvider
		requires bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if got := tt.provider.RequiresAPIKey(); got != tt.requires {
				t.Errorf("expected %v, got %v", tt.requires, got)
			}
		})
	}
}

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		valid    bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, true},
		{"anthropic", false},
		{"", false},
	}

	for _, tt := range tests {
		name := string(tt.provider)
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			if got := tt.provider.IsValid(); got != tt.valid {
				t.Errorf("expected %v, got %v", tt.valid, got)
			}
		})
	}
}

func TestAISettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		settings AISettings
		wantErr  bool
	}{
		{"empty settings (valid)", AISettings{}, false},
		{
			name: "both valid",
			settings: AISettings{
				Embedding:  EmbeddingSettings{Provider: AIProviderOpenAI},
				Completion: CompletionSettings{Provider: AIProviderOllama},
			},
		},
		{
			name:     "invalid embedding provider",
			settings: AISettings{Embedding: EmbeddingSettings{Provider: "invalid-provider"}},
			wantErr:  true,
		},
		{
			name:     "invalid completion provider",
			settings: AISettings{Completion: CompletionSettings{Provider: "invalid-provider"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProvider) {
				t.Errorf("expected ErrInvalidProvider, got %v", err)
			}
		})
	}
}
