package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grafixr/site/internal/domain/model"
)

func TestListItemsSQL_Default(t *testing.T) {
	sql, args := listItemsSQL(model.ItemQuery{SortBy: model.SortByCreatedAt, SortOrder: model.SortDesc})

	assert.Equal(t, "SELECT "+itemColumns+" FROM portfolio_items ORDER BY created_at DESC, id DESC", sql)
	assert.Empty(t, args)
}

func TestListItemsSQL_AllFilters(t *testing.T) {
	sql, args := listItemsSQL(model.ItemQuery{
		MainCategory: "Web",
		SubCategory:  "Landing",
		Search:       "apex",
		SortBy:       model.SortByTitle,
		SortOrder:    model.SortAsc,
		Limit:        5,
	})

	assert.Contains(t, sql, "lower(main_category) = lower($1)")
	assert.Contains(t, sql, "lower(sub_category) = lower($2)")
	assert.Contains(t, sql, "strpos(lower(title), lower($3)) > 0 OR strpos(lower(description), lower($3)) > 0")
	assert.Contains(t, sql, `ORDER BY lower(title) COLLATE "C" ASC, created_at ASC, id ASC`)
	assert.Contains(t, sql, "LIMIT $4")
	assert.Equal(t, []any{"Web", "Landing", "apex", 5}, args)
}

func TestExtractSSLMode(t *testing.T) {
	assert.Equal(t, "disable", extractSSLMode("postgres://u:p@localhost/db?sslmode=DISABLE"))
	assert.Equal(t, "prefer (default)", extractSSLMode("postgres://u:p@localhost/db"))
	assert.Equal(t, "unknown", extractSSLMode("://bad"))
}
