package http

import (
	"net/http"

	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req driving.AskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	answer, err := s.chat.Ask(r.Context(), r.PathValue("id"), req)
	s.metrics.ObserveQuestion(string(req.RetrievalType), err)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req driving.AskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmp, err := s.chat.Compare(r.Context(), r.PathValue("id"), req)
	s.metrics.ObserveQuestion("compare", err)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	turns, err := s.chat.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(turns))
}
