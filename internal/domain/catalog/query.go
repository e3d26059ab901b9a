package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/grafixr/site/internal/domain/model"
)

// Query parameter names understood by the gallery and the API.
const (
	ParamMainCategory = "mainCategory"
	ParamSubCategory  = "subCategory"
	ParamSearch       = "search"
	ParamSortBy       = "sortBy"
	ParamSortOrder    = "sortOrder"
	ParamLimit        = "limit"
)

// DefaultQuery returns the gallery default: newest first, unfiltered.
func DefaultQuery() model.ItemQuery {
	return model.ItemQuery{SortBy: model.SortByCreatedAt, SortOrder: model.SortDesc}
}

// ParseQuery reads an ItemQuery from URL values. Unknown sort keys fall back
// to the defaults and sort keys match case-insensitively; a malformed or negative limit is a validation error.
func ParseQuery(v url.Values) (model.ItemQuery, error) {
	q := DefaultQuery()
	q.MainCategory = strings.TrimSpace(v.Get(ParamMainCategory))
	q.SubCategory = strings.TrimSpace(v.Get(ParamSubCategory))
	q.Search = strings.TrimSpace(v.Get(ParamSearch))

	switch by := strings.TrimSpace(v.Get(ParamSortBy)); {
	case strings.EqualFold(by, model.SortByTitle):
		q.SortBy = model.SortByTitle
	case strings.EqualFold(by, model.SortByCreatedAt):
		q.SortBy = model.SortByCreatedAt
	}
	switch order := strings.TrimSpace(v.Get(ParamSortOrder)); {
	case strings.EqualFold(order, model.SortAsc):
		q.SortOrder = model.SortAsc
	case strings.EqualFold(order, model.SortDesc):
		q.SortOrder = model.SortDesc
	}

	if raw := strings.TrimSpace(v.Get(ParamLimit)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return model.ItemQuery{}, invalid(ParamLimit, "limit must be a non-negative integer")
		}
		q.Limit = n
	}
	return q, nil
}

// Encode returns the canonical query string for q. Defaults and empty
// fields are omitted, so DefaultQuery encodes to "".
func Encode(q model.ItemQuery) string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set(ParamMainCategory, q.MainCategory)
	set(ParamSubCategory, q.SubCategory)
	set(ParamSearch, q.Search)
	if q.SortBy != "" && q.SortBy != model.SortByCreatedAt {
		v.Set(ParamSortBy, q.SortBy)
	}
	if q.SortOrder != "" && q.SortOrder != model.SortDesc {
		v.Set(ParamSortOrder, q.SortOrder)
	}
	if q.Limit > 0 {
		v.Set(ParamLimit, strconv.Itoa(q.Limit))
	}
	return v.Encode()
}
