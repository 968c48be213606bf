package domain

import (
	"errors"
	"testing"
)

func TestNewEmbeddingConfig(t *testing.T) {
	cfg, err := NewEmbeddingConfig("book-1", 200, 20, CleanerAdvanced, SplitRecursive, "text-embedding-3-small")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ID == "" {
		t.Error("expected ID to be set")
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("expected batch size %d, got %d", DefaultBatchSize, cfg.BatchSize)
	}
}

func TestEmbeddingConfig_Validate(t *testing.T) {
	valid := func() EmbeddingConfig {
		return EmbeddingConfig{
			ChunkSize:       5,
			Overlap:         0,
			CleanerStrategy: CleanerSimple,
			SplitStrategy:   SplitFixed,
			Model:           "m",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *EmbeddingConfig)
		wantErr bool
	}{
		{"valid", func(c *EmbeddingConfig) {}, false},
		{"overlap just below chunk size", func(c *EmbeddingConfig) { c.Overlap = 4 }, false},
		{"overlap equals chunk size", func(c *EmbeddingConfig) { c.Overlap = 5 }, true},
		{"overlap exceeds chunk size", func(c *EmbeddingConfig) { c.Overlap = 9 }, true},
		{"negative overlap", func(c *EmbeddingConfig) { c.Overlap = -1 }, true},
		{"zero chunk size", func(c *EmbeddingConfig) { c.ChunkSize = 0 }, true},
		{"unknown cleaner", func(c *EmbeddingConfig) { c.CleanerStrategy = "aggressive" }, true},
		{"empty cleaner", func(c *EmbeddingConfig) { c.CleanerStrategy = "" }, true},
		{"unknown splitter", func(c *EmbeddingConfig) { c.SplitStrategy = "semantic" }, true},
		{"missing model", func(c *EmbeddingConfig) { c.Model = "" }, true},
		{"negative batch size", func(c *EmbeddingConfig) { c.BatchSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEmbeddingConfig_EffectiveBatchSize(t *testing.T) {
	cfg := &EmbeddingConfig{}
	if got := cfg.EffectiveBatchSize(); got != DefaultBatchSize {
		t.Errorf("expected default %d, got %d", DefaultBatchSize, got)
	}
	cfg.BatchSize = 4
	if got := cfg.EffectiveBatchSize(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}
