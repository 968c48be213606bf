package http

import (
	"context"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

// Function-field fakes for the driving ports. A nil field returns zero values.

type fakeBooks struct {
	createFn func(driving.CreateBookRequest) (*domain.Book, error)
	getFn    func(string) (*domain.Book, error)
	listFn   func() ([]*domain.Book, error)
	deleteFn func(string) error
}

func (f *fakeBooks) Create(ctx context.Context, req driving.CreateBookRequest) (*domain.Book, error) {
	if f.createFn == nil {
		return nil, nil
	}
	return f.createFn(req)
}

func (f *fakeBooks) Get(ctx context.Context, id string) (*domain.Book, error) {
	if f.getFn == nil {
		return nil, nil
	}
	return f.getFn(id)
}

func (f *fakeBooks) List(ctx context.Context) ([]*domain.Book, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn()
}

func (f *fakeBooks) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(id)
}

type fakeGraph struct {
	addNodeFn    func(string, driving.CreateNodeRequest) (*domain.GraphNode, error)
	addEdgeFn    func(string, driving.CreateEdgeRequest) (*domain.GraphEdge, error)
	deleteNodeFn func(string, string) error
}

func (f *fakeGraph) AddNode(ctx context.Context, bookID string, req driving.CreateNodeRequest) (*domain.GraphNode, error) {
	if f.addNodeFn == nil {
		return nil, nil
	}
	return f.addNodeFn(bookID, req)
}

func (f *fakeGraph) AddEdge(ctx context.Context, bookID string, req driving.CreateEdgeRequest) (*domain.GraphEdge, error) {
	if f.addEdgeFn == nil {
		return nil, nil
	}
	return f.addEdgeFn(bookID, req)
}

func (f *fakeGraph) ListNodes(ctx context.Context, bookID string) ([]*domain.GraphNode, error) {
	return nil, nil
}

func (f *fakeGraph) ListEdges(ctx context.Context, bookID string) ([]*domain.GraphEdge, error) {
	return nil, nil
}

func (f *fakeGraph) DeleteNode(ctx context.Context, bookID, nodeID string) error {
	if f.deleteNodeFn == nil {
		return nil
	}
	return f.deleteNodeFn(bookID, nodeID)
}

type fakeIndexing struct {
	createFn func(string, driving.CreateConfigRequest) (*domain.EmbeddingConfig, error)
	startFn  func(string, string) (*domain.PipelineState, error)
	stateFn  func(string, string) (*domain.PipelineState, error)
	updates  chan *domain.PipelineState
}

func (f *fakeIndexing) CreateConfig(ctx context.Context, bookID string, req driving.CreateConfigRequest) (*domain.EmbeddingConfig, error) {
	if f.createFn == nil {
		return nil, nil
	}
	return f.createFn(bookID, req)
}

func (f *fakeIndexing) ListConfigs(ctx context.Context, bookID string) ([]*domain.EmbeddingConfig, error) {
	return nil, nil
}

func (f *fakeIndexing) Start(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	if f.startFn == nil {
		return nil, nil
	}
	return f.startFn(bookID, configID)
}

func (f *fakeIndexing) Run(ctx context.Context, bookID, configID string) (*domain.IndexResult, error) {
	return nil, nil
}

func (f *fakeIndexing) State(ctx context.Context, bookID, configID string) (*domain.PipelineState, error) {
	if f.stateFn == nil {
		return domain.NewPipelineState(bookID, configID), nil
	}
	return f.stateFn(bookID, configID)
}

func (f *fakeIndexing) Watch(ctx context.Context, bookID, configID string) (<-chan *domain.PipelineState, error) {
	if f.updates == nil {
		f.updates = make(chan *domain.PipelineState)
	}
	return f.updates, nil
}

type fakeChat struct {
	askFn     func(string, driving.AskRequest) (*driving.Answer, error)
	compareFn func(string, driving.AskRequest) (*driving.Comparison, error)
	historyFn func(string, int) ([]*domain.ChatTurn, error)
}

func (f *fakeChat) Ask(ctx context.Context, bookID string, req driving.AskRequest) (*driving.Answer, error) {
	if f.askFn == nil {
		return nil, nil
	}
	return f.askFn(bookID, req)
}

func (f *fakeChat) Compare(ctx context.Context, bookID string, req driving.AskRequest) (*driving.Comparison, error) {
	if f.compareFn == nil {
		return nil, nil
	}
	return f.compareFn(bookID, req)
}

func (f *fakeChat) History(ctx context.Context, bookID string, limit int) ([]*domain.ChatTurn, error) {
	if f.historyFn == nil {
		return nil, nil
	}
	return f.historyFn(bookID, limit)
}

type fakeSettings struct {
	settings *domain.AISettings
	err      error
	testErr  error
}

func (f *fakeSettings) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	return f.settings, f.err
}

func (f *fakeSettings) UpdateAISettings(ctx context.Context, req driving.UpdateAISettingsRequest) (*driving.AISettingsStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &driving.AISettingsStatus{CanIndex: req.Embedding != nil}, nil
}

func (f *fakeSettings) GetAIStatus(ctx context.Context) (*driving.AISettingsStatus, error) {
	return &driving.AISettingsStatus{}, f.err
}

func (f *fakeSettings) TestConnection(ctx context.Context) error {
	return f.testErr
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }
