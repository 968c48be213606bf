package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
)

type embeddingItem struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

func writeEmbeddings(w http.ResponseWriter, items ...embeddingItem) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   items,
		"model":  "text-embedding-3-small",
	})
}

func TestNewOpenAIEmbedding(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		model     string
		wantErr   bool
		wantModel string
		wantDims  int
	}{
		{name: "valid with default model", apiKey: "sk-test", wantModel: "text-embedding-3-small", wantDims: 1536},
		{name: "valid with large model", apiKey: "sk-test", model: "text-embedding-3-large", wantModel: "text-embedding-3-large", wantDims: 3072},
		{name: "unknown model learns dimensions later", apiKey: "sk-test", model: "custom-model", wantModel: "custom-model", wantDims: 0},
		{name: "missing API key", apiKey: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewOpenAIEmbedding(tt.apiKey, tt.model, "")
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.Model() != tt.wantModel {
				t.Errorf("expected model %s, got %s", tt.wantModel, svc.Model())
			}
			if svc.Dimensions() != tt.wantDims {
				t.Errorf("expected %d dimensions, got %d", tt.wantDims, svc.Dimensions())
			}
		})
	}
}

func TestOpenAIEmbedding_Embed_Empty(t *testing.T) {
	svc, _ := NewOpenAIEmbedding("sk-test", "", "http://127.0.0.1:1")

	result, err := svc.Embed(context.Background(), nil)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Input) != 2 || req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected request: %+v", req)
		}

		// Out of order on purpose; the adapter orders by index.
		writeEmbeddings(w,
			embeddingItem{Object: "embedding", Index: 1, Embedding: []float32{0.4, 0.5, 0.6}},
			embeddingItem{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
		)
	}))
	defer server.Close()

	svc, err := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if result[0][0] != 0.1 || result[1][0] != 0.4 {
		t.Errorf("embeddings not in input order: %v", result)
	}
}

func TestOpenAIEmbedding_LearnsDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, embeddingItem{Object: "embedding", Index: 0, Embedding: []float32{1, 2, 3, 4}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "custom-model", server.URL)
	if _, err := svc.EmbedQuery(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Dimensions() != 4 {
		t.Errorf("expected 4 dimensions, got %d", svc.Dimensions())
	}
}

func TestOpenAIEmbedding_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-invalid", "text-embedding-3-small", server.URL)

	_, err := svc.Embed(context.Background(), []string{"test"})
	if err == nil {
		t.Fatal("expected error for API error response")
	}
	var perr *domain.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *domain.ProviderError, got %T", err)
	}
	if perr.Provider != "openai" || perr.Op != "embed" {
		t.Errorf("unexpected provider error fields: %+v", perr)
	}
	if !errors.Is(err, domain.ErrProvider) {
		t.Error("expected error to match ErrProvider")
	}
}

func TestOpenAIEmbedding_Embed_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL)

	if _, err := svc.Embed(context.Background(), []string{"test"}); !errors.Is(err, domain.ErrProvider) {
		t.Errorf("expected provider error for invalid JSON, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_MissingItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, embeddingItem{Object: "embedding", Index: 0, Embedding: []float32{0.1}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL)

	if _, err := svc.Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, domain.ErrProvider) {
		t.Errorf("expected provider error for short response, got %v", err)
	}
}

func TestOpenAIEmbedding_Embed_NetworkError(t *testing.T) {
	svc, _ := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", "http://127.0.0.1:1")

	if _, err := svc.Embed(context.Background(), []string{"test"}); !errors.Is(err, domain.ErrProvider) {
		t.Errorf("expected provider error for network failure, got %v", err)
	}
}

func TestOpenAIEmbedding_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, embeddingItem{Object: "embedding", Index: 0, Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	svc, _ := NewOpenAIEmbedding("sk-test", "text-embedding-3-small", server.URL)
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected no error from health check, got %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
