package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

// MockCompletionService is a mock implementation of CompletionService for testing.
// It records every prompt and answers with a fixed reply.
type MockCompletionService struct {
	mu      sync.Mutex
	model   string
	reply   string
	err     error
	prompts []domain.Prompt

	// CompleteFn overrides Complete when set
	CompleteFn func(ctx context.Context, prompt domain.Prompt) (string, error)
}

// NewMockCompletionService creates a new MockCompletionService
func NewMockCompletionService() *MockCompletionService {
	return &MockCompletionService{
		model: "mock-completion-model",
		reply: "mock answer [Chunk 1]",
	}
}

func (m *MockCompletionService) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, prompt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *MockCompletionService) Model() string {
	return m.model
}

func (m *MockCompletionService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockCompletionService) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockCompletionService) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

func (m *MockCompletionService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns the prompts received so far.
func (m *MockCompletionService) Prompts() []domain.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}
