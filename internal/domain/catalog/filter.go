package catalog

import (
	"sort"
	"strings"

	"github.com/grafixr/site/internal/domain/model"
)

// Matches reports whether item passes the filters of q, ignoring order and limit.
func Matches(item model.PortfolioItem, q model.ItemQuery) bool {
	if q.MainCategory != "" && !strings.EqualFold(item.MainCategory, q.MainCategory) {
		return false
	}
	if q.SubCategory != "" && !strings.EqualFold(item.SubCategory, q.SubCategory) {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(item.Title), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and limits items. The input slice is left untouched.
func Apply(items []model.PortfolioItem, q model.ItemQuery) []model.PortfolioItem {
	out := make([]model.PortfolioItem, 0, len(items))
	for _, it := range items {
		if Matches(it, q) {
			out = append(out, it)
		}
	}
	Sort(out, q.SortBy, q.SortOrder)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Sort orders items in place by sortBy and order. Title sorts compare
// lower-cased titles and break ties by CreatedAt then ID; date sorts break
// ties by ID. Descending reverses the whole key.
func Sort(items []model.PortfolioItem, sortBy, order string) {
	desc := order != model.SortAsc
	less := func(a, b model.PortfolioItem) bool {
		if sortBy == model.SortByTitle {
			ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if ta != tb {
				return ta < tb
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
