// Package site serves the server-rendered portfolio pages and the admin
// console.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grafixr/site/internal/adapters/http/api"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

const defaultFeaturedCount = 6

// Page names double as template file names.
const (
	pageHome      = "home"
	pageAbout     = "about"
	pageContact   = "contact"
	pagePortfolio = "portfolio"
	pageItem      = "item"
	pageNotFound  = "notfound"
	pageError     = "error"
	pageAdmin     = "admin"
)

var pageNames = []string{ //nolint:gochecknoglobals // fixed page list
	pageHome, pageAbout, pageContact, pagePortfolio, pageItem, pageNotFound, pageError, pageAdmin,
}

// Dependencies are the service operations the pages need.
type Dependencies interface {
	api.Dependencies
	FeaturedItems(ctx context.Context, n int) ([]model.PortfolioItem, error)
}

// Site renders the public pages and the admin console.
type Site struct {
	deps       Dependencies
	pages      map[string]*template.Template
	about      template.HTML
	log        logger.Logger
	limiter    *api.RateLimiter
	adminToken string
	featured   int
	now        func() time.Time
}

// Option configures a Site.
type Option func(*Site)

// WithAdminToken protects /admin with basic auth. Empty leaves it open.
func WithAdminToken(token string) Option {
	return func(s *Site) { s.adminToken = token }
}

// WithFeaturedCount sets how many items the home page features.
func WithFeaturedCount(n int) Option {
	return func(s *Site) {
		if n >= 0 {
			s.featured = n
		}
	}
}

// WithRateLimiter limits contact form submissions per client.
func WithRateLimiter(l *api.RateLimiter) Option {
	return func(s *Site) { s.limiter = l }
}

// WithLogger sets the site logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Site) {
		if l != nil {
			s.log = l
		}
	}
}

// New parses the embedded templates and returns a Site.
func New(deps Dependencies, opts ...Option) (*Site, error) {
	s := &Site{
		deps:     deps,
		featured: defaultFeaturedCount,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("site")
	}

	s.pages = make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs()).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		s.pages[name] = t
	}
	s.about = renderMarkdown(aboutMarkdown)
	return s, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"mediaURL": func(key string) string { return "/" + strings.TrimPrefix(key, "/") },
		"isVideo":  func(mt model.MediaType) bool { return mt == model.MediaVideo },
		"date":     func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"join":     strings.Join,
		"categoryURL": func(q model.ItemQuery, main, sub string) string {
			q.MainCategory, q.SubCategory = main, sub
			if enc := catalog.Encode(q); enc != "" {
				return "/portfolio?" + enc
			}
			return "/portfolio"
		},
	}
}

// Register attaches the site routes to r.
func (s *Site) Register(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(Static())))

	r.Group(func(r chi.Router) {
		r.Use(api.MetricsMiddleware)

		r.Get("/", s.handleHome)
		r.Get("/about", s.handleAbout)
		r.Get("/contact", s.handleContact)
		r.Post("/contact", s.handleContactSubmit)
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/portfolio/{id}", s.handleItem)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin, s.csrf)
			r.Get("/", s.handleAdmin)
			r.Post("/upload", s.handleAdminUpload)
			r.Post("/items/{id}/delete", s.handleAdminDeleteItem)
			r.Post("/categories", s.handleAdminCreateCategory)
			r.Post("/categories/{id}", s.handleAdminUpdateCategory)
			r.Post("/categories/{id}/delete", s.handleAdminDeleteCategory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.notFound(w, r, "Page not found.")
	})
}

// Page carries the fields every layout needs.
type Page struct {
	Title  string
	Active string
	Year   int
}

func (s *Site) page(title, active string) Page {
	return Page{Title: title, Active: active, Year: s.now().Year()}
}

// render executes a page into a buffer so a template error never leaves a
// half-written response.
func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		metrics.RecordPageRender(name, "error")
		s.log.Error(r.Context(), "render page", logger.String("page", name), logger.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	metrics.RecordPageRender(name, "ok")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type messagePage struct {
	Page
	Heading string
	Message string
}

func (s *Site) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	s.render(w, r, http.StatusNotFound, pageNotFound, messagePage{Page: s.page("Not found", ""), Message: msg})
}

// serverError logs err and renders a generic error page.
func (s *Site) serverError(w http.ResponseWriter, r *http.Request, err error) {
	metrics.RecordErrorByComponent("site", "internal")
	s.log.Error(r.Context(), "page failed", logger.String("path", r.URL.Path), logger.Error(err))
	s.render(w, r, http.StatusInternalServerError, pageError, messagePage{
		Page:    s.page("Error", ""),
		Heading: "Something went wrong",
		Message: "Please try again in a moment.",
	})
}

// fieldErrors flattens a validation error into the first message per field.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			if _, ok := out[p.Field]; !ok {
				out[p.Field] = p.Message
			}
		}
	}
	return out
}
