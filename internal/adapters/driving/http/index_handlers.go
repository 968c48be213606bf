package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := s.indexing.CreateConfig(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.indexing.ListConfigs(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(configs))
}

func (s *Server) handleStartIndex(w http.ResponseWriter, r *http.Request) {
	state, err := s.indexing.Start(r.Context(), r.PathValue("id"), r.PathValue("configId"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, state)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.indexing.State(r.Context(), r.PathValue("id"), r.PathValue("configId"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleStateEvents streams pipeline states as server-sent events until the
// run reaches ready or error, or the client goes away. Transitions published
// in this process arrive immediately; runs on other workers are picked up by
// polling the stored state.
func (s *Server) handleStateEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID, configID := r.PathValue("id"), r.PathValue("configId")

	current, err := s.indexing.State(ctx, bookID, configID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	updates, err := s.indexing.Watch(ctx, bookID, configID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	last := current
	send := func(st *domain.PipelineState) bool {
		data, err := json.Marshal(st)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", data); err != nil {
			return false
		}
		last = st
		return rc.Flush() == nil
	}

	if !send(current) || current.Step.IsTerminal() {
		return
	}

	ticker := time.NewTicker(s.statePoll)
	defer ticker.Stop()

	for {
		var next *domain.PipelineState
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if !stateChanged(last, st) {
				continue
			}
			next = st
		case <-ticker.C:
			st, err := s.indexing.State(ctx, bookID, configID)
			if err != nil || !stateChanged(last, st) {
				continue
			}
			next = st
		}
		if !send(next) || next.Step.IsTerminal() {
			return
		}
	}
}

func stateChanged(prev, next *domain.PipelineState) bool {
	return prev.Step != next.Step ||
		prev.ChunksTotal != next.ChunksTotal ||
		prev.ChunksEmbedded != next.ChunksEmbedded ||
		!prev.UpdatedAt.Equal(next.UpdatedAt)
}
