package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type categoryRequest struct {
	MainCategory  string   `json:"mainCategory"`
	SubCategories []string `json:"subCategories"`
}

// handleListCategories handles GET /api/categories and /api/admin/categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, "categories.list", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(categories))
}

// handleCreateCategory handles POST /api/admin/categories.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "categories.create", err)
		return
	}
	c, err := s.deps.CreateCategory(r.Context(), req.MainCategory, req.SubCategories)
	if err != nil {
		s.fail(w, r, "categories.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleUpdateCategory handles PUT /api/admin/categories/{id}.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, "categories.update", err)
		return
	}
	c, err := s.deps.UpdateSubCategories(r.Context(), chi.URLParam(r, "id"), req.SubCategories)
	if err != nil {
		s.fail(w, r, "categories.update", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCategory handles DELETE /api/admin/categories/{id}.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "categories.delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
