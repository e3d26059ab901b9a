package api

import (
	"net/http"
)

// handleStats handles GET /stats requests.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.GetStats(r.Context())
	if err != nil {
		s.fail(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
