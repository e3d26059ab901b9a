package media

import (
	"errors"
	"net/http"
	"strings"
)

// Handler serves stored media. It expects paths of the form /<name> or
// /uploads/<name> and answers 404 for anything that is not a media key,
// which rules out directory listings and traversal.
func Handler(store Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/"), KeyPrefix)
		key := KeyPrefix + name
		if !ValidKey(key) {
			http.NotFound(w, r)
			return
		}
		rc, obj, err := store.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
		if obj.ContentType == "" || Scriptable(obj.ContentType) {
			w.Header().Set("Content-Disposition", "attachment")
		}
		// Keys are content hashes.
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeContent(w, r, name, obj.ModTime, rc)
	})
}
