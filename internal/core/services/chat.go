package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-graphrag/internal/runtime"
)

// Verify interface compliance
var _ driving.ChatService = (*chatService)(nil)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxTopK             = 50
)

// chatService implements ChatService
type chatService struct {
	bookStore   driven.BookStore
	configStore driven.EmbeddingConfigStore
	chunkStore  driven.ChunkStore
	graphStore  driven.GraphStore
	chatStore   driven.ChatStore
	controller  *PipelineController
	retriever   *Retriever
	services    *runtime.Services
	logger      *slog.Logger
}

// ChatServiceConfig holds dependencies for the chat service.
type ChatServiceConfig struct {
	BookStore   driven.BookStore
	ConfigStore driven.EmbeddingConfigStore
	ChunkStore  driven.ChunkStore
	GraphStore  driven.GraphStore
	ChatStore   driven.ChatStore
	Controller  *PipelineController
	Retriever   *Retriever
	Services    *runtime.Services
	Logger      *slog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		bookStore:   cfg.BookStore,
		configStore: cfg.ConfigStore,
		chunkStore:  cfg.ChunkStore,
		graphStore:  cfg.GraphStore,
		chatStore:   cfg.ChatStore,
		controller:  cfg.Controller,
		retriever:   cfg.Retriever,
		services:    cfg.Services,
		logger:      logger,
	}
}

// askContext is everything both retrieval strategies read for one question.
type askContext struct {
	book       *domain.Book
	cfg        *domain.EmbeddingConfig
	question   string
	topK       int
	queryVec   []float32
	chunks     []*domain.Chunk
	graph      GraphSnapshot
	completion driven.CompletionService
	release    func()
}

// Ask answers one question with the requested retrieval strategy.
func (s *chatService) Ask(ctx context.Context, bookID string, req driving.AskRequest) (*driving.Answer, error) {
	rt := req.RetrievalType
	if rt == "" {
		rt = domain.RetrievalStandard
	}
	if !rt.IsValid() {
		return nil, fmt.Errorf("%w: unknown retrieval type %q", domain.ErrInvalidInput, rt)
	}

	ac, err := s.prepare(ctx, bookID, req, rt == domain.RetrievalGraph)
	if err != nil {
		return nil, err
	}
	defer ac.release()
	return s.answer(ctx, ac, rt)
}

// Compare answers the question with both strategies over the same chunk
// set, graph snapshot and query embedding.
func (s *chatService) Compare(ctx context.Context, bookID string, req driving.AskRequest) (*driving.Comparison, error) {
	ac, err := s.prepare(ctx, bookID, req, true)
	if err != nil {
		return nil, err
	}
	defer ac.release()

	cmp := &driving.Comparison{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.answer(gctx, ac, domain.RetrievalStandard)
		cmp.Standard = a
		return err
	})
	g.Go(func() error {
		a, err := s.answer(gctx, ac, domain.RetrievalGraph)
		cmp.Graph = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cmp, nil
}

// History returns recent turns for a book, newest first.
func (s *chatService) History(ctx context.Context, bookID string, limit int) ([]*domain.ChatTurn, error) {
	if _, err := s.bookStore.Get(ctx, bookID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.chatStore.ListByBook(ctx, bookID, limit)
}

func (s *chatService) prepare(ctx context.Context, bookID string, req driving.AskRequest, withGraph bool) (*askContext, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	book, err := s.bookStore.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configStore.Get(ctx, req.ConfigID)
	if err != nil {
		return nil, err
	}
	if cfg.BookID != bookID {
		return nil, fmt.Errorf("embedding config %s: %w", req.ConfigID, domain.ErrNotFound)
	}

	state, err := s.controller.State(ctx, bookID, cfg.ID)
	if err != nil {
		return nil, err
	}
	if state.Step.IsRunning() {
		return nil, fmt.Errorf("%w: indexing is %s", domain.ErrNotReady, state.Step)
	}

	chunks, err := s.chunkStore.GetChunks(ctx, bookID, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: configuration has no chunks", domain.ErrNotReady)
	}

	embedder, releaseEmbedder := s.services.AcquireEmbedding()
	defer releaseEmbedder()
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrServiceUnavailable)
	}
	if err := checkModel(cfg, embedder); err != nil {
		return nil, err
	}
	// The completion lease passes to the caller through ac.release.
	completion, releaseCompletion := s.services.AcquireCompletion()
	prepared := false
	defer func() {
		if !prepared {
			releaseCompletion()
		}
	}()
	if completion == nil {
		return nil, fmt.Errorf("%w: completion service not configured", domain.ErrServiceUnavailable)
	}

	ac := &askContext{
		book:       book,
		cfg:        cfg,
		question:   question,
		topK:       topK,
		chunks:     chunks,
		completion: completion,
		release:    releaseCompletion,
	}

	if withGraph {
		nodes, err := s.graphStore.GetNodes(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("load graph nodes: %w", err)
		}
		edges, err := s.graphStore.GetEdges(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("load graph edges: %w", err)
		}
		ac.graph = GraphSnapshot{Nodes: nodes, Edges: edges}
	}

	ac.queryVec, err = embedQuery(ctx, embedder, question)
	if err != nil {
		return nil, err
	}
	prepared = true
	return ac, nil
}

func (s *chatService) answer(ctx context.Context, ac *askContext, rt domain.RetrievalType) (*driving.Answer, error) {
	start := time.Now()

	var retrieval *domain.Retrieval
	if rt == domain.RetrievalGraph {
		retrieval = s.retriever.Graph(ac.queryVec, ac.chunks, ac.graph, ac.topK)
	} else {
		retrieval = s.retriever.Standard(ac.queryVec, ac.chunks, ac.topK)
	}

	prompt := BuildPrompt(ac.question, ac.book.Title, retrieval.PromptContext, rt)
	reply, err := ac.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("complete %s answer: %w", rt, err)
	}

	turn := domain.NewChatTurn(ac.book.ID, ac.cfg.ID, ac.question, reply, retrieval, prompt)
	if err := s.chatStore.Save(ctx, turn); err != nil {
		return nil, fmt.Errorf("save chat turn: %w", err)
	}

	s.logger.Info("question answered",
		"book_id", ac.book.ID,
		"config_id", ac.cfg.ID,
		"retrieval", rt,
		"seeds", retrieval.SeedCount,
		"candidates", retrieval.CandidateCount,
		"linked_nodes", len(retrieval.LinkedNodes),
		"duration", time.Since(start),
	)

	return &driving.Answer{Turn: turn, Retrieval: retrieval}, nil
}
