package runtime

import (
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driven"
)

// Services holds the embedding and completion clients, which the settings
// API can replace at any time.
//
// Index runs and questions take a lease with AcquireEmbedding or
// AcquireCompletion and keep the client they started with. A replaced
// client is closed once its last lease is released, so a settings change
// never cuts off a run that is halfway through embedding a book.
type Services struct {
	caps *domain.Capabilities

	embedding  slot[driven.EmbeddingService]
	completion slot[driven.CompletionService]
}

// NewServices creates an empty registry.
func NewServices(caps *domain.Capabilities) *Services {
	return &Services{caps: caps}
}

// Capabilities reports which clients are installed.
func (s *Services) Capabilities() *domain.Capabilities {
	return s.caps
}

// EmbeddingService returns the current embedding client without a lease.
// Use it for status reads only.
func (s *Services) EmbeddingService() driven.EmbeddingService {
	return s.embedding.peek()
}

// CompletionService returns the current completion client without a lease.
func (s *Services) CompletionService() driven.CompletionService {
	return s.completion.peek()
}

// AcquireEmbedding leases the current embedding client. The returned
// release must be called exactly once; it is a no-op when svc is nil.
func (s *Services) AcquireEmbedding() (driven.EmbeddingService, func()) {
	return s.embedding.acquire()
}

// AcquireCompletion leases the current completion client.
func (s *Services) AcquireCompletion() (driven.CompletionService, func()) {
	return s.completion.acquire()
}

// SetEmbeddingService installs svc, which may be nil, and retires the
// previous client.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.embedding.set(svc)
	s.caps.Set(domain.CapabilityEmbedding, svc != nil)
}

// SetCompletionService installs svc and retires the previous client.
func (s *Services) SetCompletionService(svc driven.CompletionService) {
	s.completion.set(svc)
	s.caps.Set(domain.CapabilityCompletion, svc != nil)
}

// ValidateAndSetEmbedding health-checks svc before installing it.
// A failing svc is closed and the current client stays in place.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}
	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetCompletion pings svc before installing it.
func (s *Services) ValidateAndSetCompletion(ctx context.Context, svc driven.CompletionService) error {
	if svc == nil {
		s.SetCompletionService(nil)
		return nil
	}
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetCompletionService(svc)
	return nil
}

// Close retires both clients. Leased clients close on their last release.
func (s *Services) Close() error {
	s.SetEmbeddingService(nil)
	s.SetCompletionService(nil)
	return nil
}

// slot is one replaceable, reference-counted client.
type slot[T io.Closer] struct {
	mu      sync.Mutex
	current *lease[T]
}

type lease[T io.Closer] struct {
	svc     T
	refs    int
	retired bool
}

func (s *slot[T]) peek() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		var zero T
		return zero
	}
	return s.current.svc
}

func (s *slot[T]) acquire() (T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.current
	if l == nil {
		var zero T
		return zero, func() {}
	}
	l.refs++

	var once sync.Once
	return l.svc, func() {
		once.Do(func() { s.release(l) })
	}
}

func (s *slot[T]) release(l *lease[T]) {
	s.mu.Lock()
	l.refs--
	closeNow := l.retired && l.refs == 0
	s.mu.Unlock()
	if closeNow {
		_ = l.svc.Close()
	}
}

// set installs svc. A nil interface value empties the slot.
func (s *slot[T]) set(svc T) {
	var next *lease[T]
	if any(svc) != nil {
		next = &lease[T]{svc: svc}
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	closeNow := false
	if prev != nil {
		prev.retired = true
		closeNow = prev.refs == 0
	}
	s.mu.Unlock()

	if closeNow {
		_ = prev.svc.Close()
	}
}
