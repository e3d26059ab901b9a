package site

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/grafixr/site/internal/adapters/http/api"
	"github.com/grafixr/site/internal/adapters/media"
	"github.com/grafixr/site/internal/adapters/repository"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/logger"
)

// Console tabs.
const (
	tabUpload     = "upload"
	tabList       = "list"
	tabCategories = "categories"
	tabInquiries  = "inquiries"
)

func (s *Site) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !api.Authorized(r, s.adminToken) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Grafixr admin", charset="UTF-8"`)
			s.render(w, r, http.StatusUnauthorized, pageError, messagePage{
				Page:    s.page("Sign in", ""),
				Heading: "Sign in required",
				Message: "Use the admin token as the password.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adminPage struct {
	Page
	Tab          string
	Notice       string
	Error        string
	Categories   []model.Category
	Items        []model.PortfolioItem
	Inquiries    []model.Inquiry
	SelectedMain string
	SelectedSub  string
	EditID       string
	CSRFToken    string
}

func (s *Site) handleAdmin(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	p := adminPage{
		Page:   s.page("Admin", ""),
		Tab:    v.Get("tab"),
		Notice: v.Get("notice"),
		Error:  v.Get("error"),
	}
	p.CSRFToken = csrfToken(r.Context())
	ctx := r.Context()
	var err error
	switch p.Tab {
	case tabList:
		p.Items, err = s.deps.ListItems(ctx, catalog.DefaultQuery())
	case tabCategories:
		p.Categories, err = s.deps.ListCategories(ctx)
		p.EditID = v.Get("edit")
	case tabInquiries:
		p.Inquiries, err = s.deps.ListInquiries(ctx)
	default:
		p.Tab = tabUpload
		p.Categories, err = s.deps.ListCategories(ctx)
		p.SelectedMain, p.SelectedSub = catalog.DefaultSelection(p.Categories, v.Get("main"), v.Get("sub"))
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageAdmin, p)
}

// redirect sends the browser back to a console tab with a flash message.
func (s *Site) redirect(w http.ResponseWriter, r *http.Request, tab, notice string, err error, extra url.Values) {
	v := url.Values{"tab": {tab}}
	for k, vals := range extra {
		v[k] = vals
	}
	if notice != "" {
		v.Set("notice", notice)
	}
	if err != nil {
		v.Set("error", s.flashMessage(r, err))
	}
	http.Redirect(w, r, "/admin?"+v.Encode(), http.StatusSeeOther)
}

// flashMessage turns err into text for the console. Unexpected errors are
// logged and shown generically.
func (s *Site) flashMessage(r *http.Request, err error) string {
	var (
		verr     *catalog.ValidationError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, repository.ErrConflict):
		return "A category with that name already exists."
	case errors.Is(err, repository.ErrNotFound):
		return "It no longer exists."
	case errors.As(err, &tooLarge):
		return "The upload is too large."
	case errors.Is(err, media.ErrEmpty):
		return "Files must not be empty."
	case errors.Is(err, api.ErrBadRequest):
		return "The form could not be read."
	}
	s.log.Error(r.Context(), "admin action failed", logger.String("path", r.URL.Path), logger.Error(err))
	return "Something went wrong. Please try again."
}

func (s *Site) handleAdminUpload(w http.ResponseWriter, r *http.Request) {
	draft, uploads, cleanup, err := api.ParseUploadForm(r)
	defer cleanup()
	keep := url.Values{}
	if draft.MainCategory != "" {
		keep.Set("main", draft.MainCategory)
		keep.Set("sub", draft.SubCategory)
	}
	if err != nil {
		s.redirect(w, r, tabUpload, "", err, keep)
		return
	}
	item, err := s.deps.CreateItem(r.Context(), draft, uploads)
	if err != nil {
		s.redirect(w, r, tabUpload, "", err, keep)
		return
	}
	s.redirect(w, r, tabUpload, "Uploaded \""+item.Title+"\".", nil, keep)
}

func (s *Site) handleAdminDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.redirect(w, r, tabList, "", err, nil)
		return
	}
	s.redirect(w, r, tabList, "Item deleted.", nil, nil)
}

func (s *Site) handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, tabCategories, "", api.ErrBadRequest, nil)
		return
	}
	subs := catalog.ParseTags(r.PostForm.Get("subCategories"))
	c, err := s.deps.CreateCategory(r.Context(), r.PostForm.Get("mainCategory"), subs)
	if err != nil {
		s.redirect(w, r, tabCategories, "", err, nil)
		return
	}
	s.redirect(w, r, tabCategories, "Created \""+c.MainCategory+"\".", nil, nil)
}

func (s *Site) handleAdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, tabCategories, "", api.ErrBadRequest, url.Values{"edit": {id}})
		return
	}
	subs := catalog.ParseTags(r.PostForm.Get("subCategories"))
	c, err := s.deps.UpdateSubCategories(r.Context(), id, subs)
	if err != nil {
		s.redirect(w, r, tabCategories, "", err, url.Values{"edit": {id}})
		return
	}
	s.redirect(w, r, tabCategories, "Updated \""+c.MainCategory+"\".", nil, nil)
}

func (s *Site) handleAdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.redirect(w, r, tabCategories, "", err, nil)
		return
	}
	s.redirect(w, r, tabCategories, "Category deleted.", nil, nil)
}
