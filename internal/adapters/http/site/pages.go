package site

import (
	"errors"
	"html/template"
	"net"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/grafixr/site/internal/adapters/repository"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/metrics"
)

type homePage struct {
	Page
	Items []model.PortfolioItem
}

func (s *Site) handleHome(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.FeaturedItems(r.Context(), s.featured)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageHome, homePage{Page: s.page("Home", pageHome), Items: items})
}

type aboutPage struct {
	Page
	Body template.HTML
}

func (s *Site) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageAbout, aboutPage{Page: s.page("About Us", pageAbout), Body: s.about})
}

type contactPage struct {
	Page
	Form         model.InquiryDraft
	Errors       map[string]string
	FormError    string
	Sent         bool
	ProjectTypes []model.ProjectType
}

func (s *Site) contactPage() contactPage {
	return contactPage{
		Page:         s.page("Contact", pageContact),
		Errors:       map[string]string{},
		ProjectTypes: model.ProjectTypes,
	}
}

func (s *Site) handleContact(w http.ResponseWriter, r *http.Request) {
	p := s.contactPage()
	p.Sent = r.URL.Query().Get("sent") == "1"
	s.render(w, r, http.StatusOK, pageContact, p)
}

// handleContactSubmit stores the inquiry and redirects, or re-renders the
// form with inline errors and the submitted values.
func (s *Site) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	p := s.contactPage()
	if err := r.ParseForm(); err != nil {
		p.FormError = "The form could not be read. Please try again."
		s.render(w, r, http.StatusBadRequest, pageContact, p)
		return
	}
	p.Form = model.InquiryDraft{
		Name:         r.PostForm.Get("name"),
		Email:        r.PostForm.Get("email"),
		Phone:        r.PostForm.Get("phone"),
		ProjectType:  r.PostForm.Get("projectType"),
		Budget:       r.PostForm.Get("budget"),
		Deadline:     r.PostForm.Get("deadline"),
		Requirements: r.PostForm.Get("requirements"),
	}

	if s.limiter != nil && !s.limiter.Allow(remoteHost(r)) {
		metrics.RecordRateLimited("contact")
		p.FormError = "Too many submissions. Please try again later."
		s.render(w, r, http.StatusTooManyRequests, pageContact, p)
		return
	}

	if _, err := s.deps.SubmitInquiry(r.Context(), p.Form); err != nil {
		var verr *catalog.ValidationError
		if !errors.As(err, &verr) {
			s.serverError(w, r, err)
			return
		}
		p.Errors = fieldErrors(err)
		s.render(w, r, http.StatusBadRequest, pageContact, p)
		return
	}
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

type portfolioPage struct {
	Page
	Query      model.ItemQuery
	Categories []model.Category
	Items      []model.PortfolioItem
}

func (s *Site) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		// A bad limit on a page link is not worth an error page.
		q, _ = catalog.ParseQuery(withoutLimit(r))
	}
	categories, err := s.deps.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	items, err := s.deps.ListItems(r.Context(), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pagePortfolio, portfolioPage{
		Page:       s.page("Portfolio", pagePortfolio),
		Query:      q,
		Categories: categories,
		Items:      items,
	})
}

type itemPage struct {
	Page
	Item model.PortfolioItem
}

func (s *Site) handleItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.GetItem(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.notFound(w, r, "Item not found.")
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageItem, itemPage{Page: s.page(item.Title, pagePortfolio), Item: item})
}

func withoutLimit(r *http.Request) url.Values {
	v := r.URL.Query()
	v.Del(catalog.ParamLimit)
	return v
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
