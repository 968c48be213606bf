package domain

import (
	"fmt"
	"time"
)

// PipelineStep is a state of the indexing state machine
type PipelineStep string

const (
	StepIdle          PipelineStep = "idle"
	StepPreprocessing PipelineStep = "preprocessing"
	StepChunking      PipelineStep = "chunking"
	StepEmbedding     PipelineStep = "embedding"
	StepReady         PipelineStep = "ready"
	StepError         PipelineStep = "error"
)

// IsTerminal returns true for ready and error
func (s PipelineStep) IsTerminal() bool {
	return s == StepReady || s == StepError
}

// IsRunning returns true while a run is in progress
func (s PipelineStep) IsRunning() bool {
	switch s {
	case StepPreprocessing, StepChunking, StepEmbedding:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine allows from -> to.
// Steps advance strictly in order; a running step may fail into error,
// and a run may only start from idle or error.
func CanTransition(from, to PipelineStep) bool {
	switch to {
	case StepPreprocessing:
		return from == StepIdle || from == StepError
	case StepChunking:
		return from == StepPreprocessing
	case StepEmbedding:
		return from == StepChunking
	case StepReady:
		return from == StepEmbedding
	case StepError:
		return from.IsRunning()
	default:
		return false
	}
}

// PipelineState is the observable progress of an index run for one
// (book, embedding config) pair.
type PipelineState struct {
	BookID         string       `json:"book_id"`
	ConfigID       string       `json:"config_id"`
	Step           PipelineStep `json:"step"`
	ChunksTotal    int          `json:"chunks_total"`
	ChunksEmbedded int          `json:"chunks_embedded"`
	Error          string       `json:"error,omitempty"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewPipelineState returns an idle state.
func NewPipelineState(bookID, configID string) *PipelineState {
	return &PipelineState{
		BookID:    bookID,
		ConfigID:  configID,
		Step:      StepIdle,
		UpdatedAt: time.Now(),
	}
}

// Advance moves the state to the given step.
func (s *PipelineState) Advance(to PipelineStep) error {
	if !CanTransition(s.Step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Step, to)
	}
	now := time.Now()
	if to == StepPreprocessing {
		s.StartedAt = &now
		s.ChunksTotal = 0
		s.ChunksEmbedded = 0
		s.Error = ""
	}
	s.Step = to
	s.UpdatedAt = now
	return nil
}

// Fail moves a running state to error with the failing step's message.
func (s *PipelineState) Fail(err error) error {
	failed := s.Step
	if transErr := s.Advance(StepError); transErr != nil {
		return transErr
	}
	s.Error = fmt.Sprintf("%s: %v", failed, err)
	return nil
}

// Clone returns a copy safe to hand to subscribers.
func (s *PipelineState) Clone() *PipelineState {
	c := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	return &c
}

// IndexResult summarises a completed index run
type IndexResult struct {
	BookID   string  `json:"book_id"`
	ConfigID string  `json:"config_id"`
	Chunks   int     `json:"chunks"`
	Duration float64 `json:"duration_seconds"`
}
