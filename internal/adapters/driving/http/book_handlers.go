package http

import (
	"net/http"

	"github.com/custodia-labs/sercha-graphrag/internal/core/ports/driving"
)

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	book, err := s.books.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(books))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.books.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.books.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Knowledge graph

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	node, err := s.graph.AddNode(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.graph.ListNodes(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(nodes))
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.graph.DeleteNode(r.Context(), r.PathValue("id"), r.PathValue("nodeId")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateEdgeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	edge, err := s.graph.AddEdge(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) handleListEdges(w http.ResponseWriter, r *http.Request) {
	edges, err := s.graph.ListEdges(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(edges))
}
