package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authorized reports whether r carries the admin token, either as a bearer
// token or as the basic auth password. An empty token authorizes everyone.
func Authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return secureEqual(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), token)
	}
	if _, pass, ok := r.BasicAuth(); ok {
		return secureEqual(pass, token)
	}
	return false
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RequireAdmin rejects requests without the admin token.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Authorized(r, token) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="grafixr"`)
				writeError(w, ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
