package catalog

import (
	"strings"

	"github.com/grafixr/site/internal/domain/model"
)

// CategoryMap maps each main category to its subcategories.
func CategoryMap(categories []model.Category) map[string][]string {
	m := make(map[string][]string, len(categories))
	for _, c := range categories {
		m[c.MainCategory] = append([]string(nil), c.SubCategories...)
	}
	return m
}

// FindCategory returns the category named main, ignoring case.
func FindCategory(categories []model.Category, main string) (model.Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.MainCategory, main) {
			return c, true
		}
	}
	return model.Category{}, false
}

// DefaultSelection picks the category pair an upload form starts with. A
// still valid current selection is kept; otherwise the first category and
// its first subcategory are used. Both are empty when there are no categories.
func DefaultSelection(categories []model.Category, main, sub string) (string, string) {
	if len(categories) == 0 {
		return "", ""
	}
	c, ok := FindCategory(categories, main)
	if !ok {
		c = categories[0]
	}
	for _, s := range c.SubCategories {
		if strings.EqualFold(s, sub) {
			return c.MainCategory, s
		}
	}
	if len(c.SubCategories) == 0 {
		return c.MainCategory, ""
	}
	return c.MainCategory, c.SubCategories[0]
}
