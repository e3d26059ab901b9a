package api

import (
	"net/http"

	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/metrics"
)

const inquiryLimiter = "inquiries"

// handleSubmitInquiry handles POST /api/inquiries.
func (s *Server) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		metrics.RecordRateLimited(inquiryLimiter)
		w.Header().Set("Retry-After", "60")
		writeError(w, ErrRateLimited)
		return
	}
	var draft model.InquiryDraft
	if err := decodeJSON(r, &draft); err != nil {
		s.fail(w, r, "inquiries.submit", err)
		return
	}
	in, err := s.deps.SubmitInquiry(r.Context(), draft)
	if err != nil {
		s.fail(w, r, "inquiries.submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

// handleListInquiries handles GET /api/admin/inquiries.
func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.ListInquiries(r.Context())
	if err != nil {
		s.fail(w, r, "inquiries.list", err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}
