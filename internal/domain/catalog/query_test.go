package catalog

import (
	"errors"
	"net/url"
	"testing"

	"github.com/grafixr/site/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseQuery(t *testing.T) {
	Convey("Given gallery query parameters", t, func() {
		Convey("When none are set", func() {
			q, err := ParseQuery(url.Values{})

			Convey("Then the defaults apply", func() {
				So(err, ShouldBeNil)
				So(q, ShouldResemble, DefaultQuery())
				So(q.SortBy, ShouldEqual, model.SortByCreatedAt)
				So(q.SortOrder, ShouldEqual, model.SortDesc)
			})
		})

		Convey("When all are set", func() {
			q, err := ParseQuery(url.Values{
				"mainCategory": {" Branding "},
				"subCategory":  {"Logos"},
				"search":       {"coffee"},
				"sortBy":       {"title"},
				"sortOrder":    {"ASC"},
				"limit":        {"5"},
			})

			Convey("Then they are read and trimmed", func() {
				So(err, ShouldBeNil)
				So(q.MainCategory, ShouldEqual, "Branding")
				So(q.SubCategory, ShouldEqual, "Logos")
				So(q.Search, ShouldEqual, "coffee")
				So(q.SortBy, ShouldEqual, model.SortByTitle)
				So(q.SortOrder, ShouldEqual, model.SortAsc)
				So(q.Limit, ShouldEqual, 5)
			})
		})

		Convey("When sort keys are unknown", func() {
			q, err := ParseQuery(url.Values{"sortBy": {"price"}, "sortOrder": {"sideways"}})

			Convey("Then they fall back to the defaults", func() {
				So(err, ShouldBeNil)
				So(q.SortBy, ShouldEqual, model.SortByCreatedAt)
				So(q.SortOrder, ShouldEqual, model.SortDesc)
			})
		})

		Convey("When sort keys differ in case", func() {
			q, err := ParseQuery(url.Values{"sortBy": {"Title"}, "sortOrder": {" ASC "}})
			created, _ := ParseQuery(url.Values{"sortBy": {"CREATEDAT"}, "sortOrder": {"asc"}})

			Convey("Then both are matched the same way", func() {
				So(err, ShouldBeNil)
				So(q.SortBy, ShouldEqual, model.SortByTitle)
				So(q.SortOrder, ShouldEqual, model.SortAsc)
				So(created.SortBy, ShouldEqual, model.SortByCreatedAt)
			})
		})

		Convey("When the limit is malformed or negative", func() {
			for _, raw := range []string{"abc", "-1", "1.5"} {
				_, err := ParseQuery(url.Values{"limit": {raw}})
				var verr *ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field(), ShouldEqual, ParamLimit)
			}
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("Given item queries", t, func() {
		Convey("Then the default query encodes to nothing", func() {
			So(Encode(DefaultQuery()), ShouldEqual, "")
		})

		Convey("Then non-default fields are encoded in key order", func() {
			q := model.ItemQuery{MainCategory: "Web Design", Search: "a&b", SortBy: model.SortByTitle, SortOrder: model.SortAsc, Limit: 3}
			So(Encode(q), ShouldEqual, "limit=3&mainCategory=Web+Design&search=a%26b&sortBy=title&sortOrder=asc")
		})

		Convey("Then an encoded query parses back to the same query", func() {
			q := model.ItemQuery{MainCategory: "Print", SubCategory: "Posters", SortBy: model.SortByTitle, SortOrder: model.SortDesc}
			v, err := url.ParseQuery(Encode(q))
			So(err, ShouldBeNil)
			back, err := ParseQuery(v)
			So(err, ShouldBeNil)
			So(back, ShouldResemble, q)
		})
	})
}
