package catalog

import (
	"testing"
	"time"

	"github.com/grafixr/site/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixtureItems() []model.PortfolioItem {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.PortfolioItem{
		{ID: "1", Title: "coffee logo", Description: "brand mark", MainCategory: "Branding", SubCategory: "Logos", CreatedAt: base},
		{ID: "2", Title: "Bakery Poster", Description: "A3 print with Coffee art", MainCategory: "Print", SubCategory: "Posters", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "Apex site", Description: "landing page", MainCategory: "Web", SubCategory: "Landing", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "4", Title: "apex site", Description: "second iteration", MainCategory: "Web", SubCategory: "Landing", CreatedAt: base.Add(2 * time.Hour)},
	}
}

func ids(items []model.PortfolioItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestApply(t *testing.T) {
	Convey("Given a set of portfolio items", t, func() {
		items := fixtureItems()

		Convey("When applying the default query", func() {
			out := Apply(items, DefaultQuery())

			Convey("Then items are newest first with ID breaking ties", func() {
				So(ids(out), ShouldResemble, []string{"4", "3", "2", "1"})
			})

			Convey("Then the input order is untouched", func() {
				So(ids(items), ShouldResemble, []string{"1", "2", "3", "4"})
			})
		})

		Convey("When sorting by title ascending", func() {
			out := Apply(items, model.ItemQuery{SortBy: model.SortByTitle, SortOrder: model.SortAsc})

			Convey("Then titles compare case-insensitively", func() {
				So(ids(out), ShouldResemble, []string{"3", "4", "2", "1"})
			})
		})

		Convey("When sorting by title descending", func() {
			out := Apply(items, model.ItemQuery{SortBy: model.SortByTitle, SortOrder: model.SortDesc})
			So(ids(out), ShouldResemble, []string{"1", "2", "4", "3"})
		})

		Convey("When filtering by category", func() {
			out := Apply(items, model.ItemQuery{MainCategory: "web", SubCategory: "LANDING"})
			So(ids(out), ShouldResemble, []string{"4", "3"})
		})

		Convey("When searching", func() {
			out := Apply(items, model.ItemQuery{Search: "COFFEE"})

			Convey("Then title and description are both matched", func() {
				So(ids(out), ShouldResemble, []string{"2", "1"})
			})
		})

		Convey("When limiting", func() {
			out := Apply(items, model.ItemQuery{Limit: 2})
			So(ids(out), ShouldResemble, []string{"4", "3"})
		})

		Convey("When nothing matches", func() {
			So(Apply(items, model.ItemQuery{MainCategory: "Video"}), ShouldBeEmpty)
		})
	})
}
