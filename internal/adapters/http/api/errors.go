package api

import (
	"errors"
	"net/http"

	"github.com/grafixr/site/internal/adapters/media"
	"github.com/grafixr/site/internal/adapters/repository"
	"github.com/grafixr/site/internal/domain/catalog"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("too many requests, try again later")
	ErrPayloadTooLarge = errors.New("request body too large")
)

// Error codes returned in the "code" field.
const (
	CodeValidation   = "validation"
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeTooLarge     = "payload_too_large"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Field  string            `json:"field,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusOf maps an error to its HTTP status and code.
func statusOf(err error) (int, string) {
	var (
		verr    *catalog.ValidationError
		tooLong *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, ErrBadRequest), errors.Is(err, media.ErrEmpty):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, ErrPayloadTooLarge), errors.As(err, &tooLong):
		return http.StatusRequestEntityTooLarge, CodeTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func newErrorResponse(err error) (int, errorResponse) {
	status, code := statusOf(err)
	resp := errorResponse{Error: err.Error(), Code: code}
	if status == http.StatusInternalServerError {
		resp.Error = http.StatusText(status)
	}
	if status == http.StatusRequestEntityTooLarge {
		resp.Error = ErrPayloadTooLarge.Error()
	}

	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field()
		if len(verr.Problems) > 1 {
			resp.Fields = make(map[string]string, len(verr.Problems))
			for _, p := range verr.Problems {
				if _, seen := resp.Fields[p.Field]; !seen {
					resp.Fields[p.Field] = p.Message
				}
			}
		}
	}
	return status, resp
}
