package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Ensure OpenAICompletion implements CompletionService
var _ driven.CompletionService = (*OpenAICompletion)(nil)

const defaultOpenAIChatModel = "gpt-4o-mini"

// OpenAICompletion implements CompletionService with the chat completions API.
type OpenAICompletion struct {
	client      *openai.Client
	httpClient  *http.Client
	provider    string
	model       string
	temperature float32
}

// NewOpenAICompletion creates a chat completion client for OpenAI or a
// compatible endpoint.
func NewOpenAICompletion(apiKey, model, baseURL string, temperature float32) (*OpenAICompletion, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidInput)
	}
	if model == "" {
		model = defaultOpenAIChatModel
	}
	return newOpenAICompletion(string(domain.AIProviderOpenAI), apiKey, model, baseURL, temperature), nil
}

func newOpenAICompletion(provider, apiKey, model, baseURL string, temperature float32) *OpenAICompletion {
	httpClient := &http.Client{Timeout: defaultOpenAITimeout}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = httpClient

	return &OpenAICompletion{
		client:      openai.NewClientWithConfig(cfg),
		httpClient:  httpClient,
		provider:    provider,
		model:       model,
		temperature: temperature,
	}
}

// Complete sends the system and user prompt and returns the first choice.
func (c *OpenAICompletion) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", domain.NewProviderError(c.provider, "complete", describeOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewProviderError(c.provider, "complete", errors.New("no choices returned"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Model returns the model name being used
func (c *OpenAICompletion) Model() string {
	return c.model
}

// Ping lists models, which is authenticated but free.
func (c *OpenAICompletion) Ping(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return domain.NewProviderError(c.provider, "ping", describeOpenAIError(err))
	}
	return nil
}

// Close releases idle connections
func (c *OpenAICompletion) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
