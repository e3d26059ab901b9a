package site

import (
	"context"
	"crypto/subtle"
	"errors"
	"mime"
	"net/http"

	"github.com/google/uuid"

	"github.com/grafixr/site/internal/adapters/http/api"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

// Double-submit token names. The cookie and the form field carry the same
// value; scripts may send the header instead of the field.
const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfCookiePath = "/admin"
)

type csrfKey struct{}

// csrfToken returns the token issued for this request, if any.
func csrfToken(ctx context.Context) string {
	t, _ := ctx.Value(csrfKey{}).(string)
	return t
}

// csrf guards the console's state-changing requests. Safe requests get a
// token cookie; every other request must echo it back and must not come
// from another site.
func (s *Site) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(csrfCookieName); err == nil && validToken(c.Value) {
			token = c.Value
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if token == "" {
				token = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     csrfCookiePath,
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteStrictMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
			return
		}

		if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
			s.rejectCSRF(w, r, "cross-site")
			return
		}
		sent, err := submittedToken(r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.redirect(w, r, tabUpload, "", err, nil)
				return
			}
			s.rejectCSRF(w, r, "unreadable")
			return
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			s.rejectCSRF(w, r, "mismatch")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// submittedToken reads the token from the header or the posted form. Parsed
// forms stay on r for the handler.
func submittedToken(r *http.Request) (string, error) {
	if t := r.Header.Get(csrfHeader); t != "" {
		return t, nil
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	switch ct {
	case "multipart/form-data":
		err = r.ParseMultipartForm(api.MultipartMemory)
	case "application/x-www-form-urlencoded":
		err = r.ParseForm()
	default:
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return r.PostForm.Get(csrfFormField), nil
}

func validToken(t string) bool {
	_, err := uuid.Parse(t)
	return err == nil
}

func (s *Site) rejectCSRF(w http.ResponseWriter, r *http.Request, reason string) {
	metrics.RecordErrorByComponent("site", "csrf")
	s.log.Warn(r.Context(), "rejected admin request", logger.String("path", r.URL.Path), logger.String("reason", reason))
	s.render(w, r, http.StatusForbidden, pageError, messagePage{
		Page:    s.page("Forbidden", ""),
		Heading: "Request blocked",
		Message: "The form has expired. Reload the admin console and try again.",
	})
}
