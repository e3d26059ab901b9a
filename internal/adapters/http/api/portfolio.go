package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/grafixr/site/internal/adapters/media"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/metrics"
)

// MultipartMemory is how much of an upload is kept in memory before
// spilling to temp files.
const MultipartMemory = 32 << 20

// Multipart field names of POST /api/admin/upload.
const (
	FormTitle        = "title"
	FormDescription  = "description"
	FormMainCategory = "mainCategory"
	FormSubCategory  = "subCategory"
	FormMediaType    = "mediaType"
	FormFiles        = "files"
)

// handleListItems handles GET /api/portfolio.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, "portfolio.list", err)
		return
	}
	items, err := s.deps.ListItems(r.Context(), q)
	if err != nil {
		s.fail(w, r, "portfolio.list", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

// handleGetItem handles GET /api/portfolio/{id}.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "portfolio.get", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleAdminList handles GET /api/admin/list: every item, newest first.
func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.ListItems(r.Context(), catalog.DefaultQuery())
	if err != nil {
		s.fail(w, r, "admin.list", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(items))
}

// handleUpload handles POST /api/admin/upload.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	draft, uploads, cleanup, err := ParseUploadForm(r)
	defer cleanup()
	if err != nil {
		metrics.RecordUploadError("bad_form")
		s.fail(w, r, "admin.upload", err)
		return
	}
	item, err := s.deps.CreateItem(r.Context(), draft, uploads)
	if err != nil {
		s.fail(w, r, "admin.upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ParseUploadForm reads an item draft and its files from a multipart
// request. Both "files" and "files[]" are accepted. cleanup removes any temp
// files and is safe to call on error.
func ParseUploadForm(r *http.Request) (model.ItemDraft, []media.Upload, func(), error) {
	cleanup := func() {}
	if err := r.ParseMultipartForm(MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.ItemDraft{}, nil, cleanup, err
		}
		return model.ItemDraft{}, nil, cleanup, fmt.Errorf("%w: expected multipart form data", ErrBadRequest)
	}
	form := r.MultipartForm
	cleanup = func() { _ = form.RemoveAll() }

	draft := model.ItemDraft{
		Title:        r.FormValue(FormTitle),
		Description:  r.FormValue(FormDescription),
		MainCategory: r.FormValue(FormMainCategory),
		SubCategory:  r.FormValue(FormSubCategory),
		MediaType:    r.FormValue(FormMediaType),
	}
	headers := append(append([]*multipart.FileHeader(nil), form.File[FormFiles]...), form.File[FormFiles+"[]"]...)
	uploads, err := media.FromMultipart(headers)
	if err != nil {
		return draft, nil, cleanup, err
	}
	return draft, uploads, cleanup, nil
}

// handleDeleteItem handles DELETE /api/admin/delete/{id}.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "admin.delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
