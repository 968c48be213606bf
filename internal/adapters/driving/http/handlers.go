package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/custodia-labs/sercha-graphrag/internal/core/domain"
	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

// maxBodyBytes bounds request bodies; book uploads carry full page text.
const maxBodyBytes = 64 << 20

// notFoundHint is shown with every 404 from the book API.
const notFoundHint = "select or reprocess a book"

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// ReadyResponse reports each readiness check
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, check := range s.checks {
		if check == nil {
			continue
		}
		if err := check.Ping(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// AI settings

type aiSettingsResponse struct {
	Embedding  aiProviderInfo `json:"embedding"`
	Completion aiProviderInfo `json:"completion"`
}

// aiProviderInfo never carries the API key itself.
type aiProviderInfo struct {
	Provider          domain.AIProvider `json:"provider,omitempty"`
	Model             string            `json:"model,omitempty"`
	BaseURL           string            `json:"base_url,omitempty"`
	HasAPIKey         bool              `json:"has_api_key"`
	IsConfigured      bool              `json:"is_configured"`
	RequestsPerSecond float64           `json:"requests_per_second,omitempty"`
	Temperature       *float32          `json:"temperature,omitempty"`
}

func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.GetAISettings(r.Context())
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusOK, aiSettingsResponse{})
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	temp := settings.Completion.Temperature
	writeJSON(w, http.StatusOK, aiSettingsResponse{
		Embedding: aiProviderInfo{
			Provider:          settings.Embedding.Provider,
			Model:             settings.Embedding.Model,
			BaseURL:           settings.Embedding.BaseURL,
			HasAPIKey:         settings.Embedding.APIKey != "",
			IsConfigured:      settings.Embedding.IsConfigured(),
			RequestsPerSecond: settings.Embedding.RequestsPerSecond,
		},
		Completion: aiProviderInfo{
			Provider:     settings.Completion.Provider,
			Model:        settings.Completion.Model,
			BaseURL:      settings.Completion.BaseURL,
			HasAPIKey:    settings.Completion.APIKey != "",
			IsConfigured: settings.Completion.IsConfigured(),
			Temperature:  &temp,
		},
	})
}

func (s *Server) handleUpdateAISettings(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateAISettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := s.settings.UpdateAISettings(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetAIStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.settings.GetAIStatus(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleTestAIConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.settings.TestConnection(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Helpers

// writeServiceError maps domain errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProvider):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Hint: notFoundHint})
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyIndexed),
		errors.Is(err, domain.ErrIndexInProgress),
		errors.Is(err, domain.ErrNotReady),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

// nonNil keeps empty lists serialised as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
