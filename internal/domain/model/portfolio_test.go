package model

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMediaType(t *testing.T) {
	Convey("Given media type strings", t, func() {
		Convey("Then image and video are accepted case-insensitively", func() {
			mt, ok := ParseMediaType(" Image ")
			So(ok, ShouldBeTrue)
			So(mt, ShouldEqual, MediaImage)

			mt, ok = ParseMediaType("VIDEO")
			So(ok, ShouldBeTrue)
			So(mt, ShouldEqual, MediaVideo)
		})

		Convey("Then anything else is rejected", func() {
			_, ok := ParseMediaType("audio")
			So(ok, ShouldBeFalse)
			_, ok = ParseMediaType("")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestMatchesContentType(t *testing.T) {
	Convey("Given an image media type", t, func() {
		So(MediaImage.MatchesContentType("image/png"), ShouldBeTrue)
		So(MediaImage.MatchesContentType("IMAGE/JPEG"), ShouldBeTrue)
		So(MediaImage.MatchesContentType("video/mp4"), ShouldBeFalse)
		So(MediaImage.MatchesContentType("imagex/png"), ShouldBeFalse)
		So(MediaImage.MatchesContentType("image/svg+xml"), ShouldBeFalse)
		So(MediaImage.MatchesContentType("image/png; charset=binary"), ShouldBeTrue)
		So(MediaType("").MatchesContentType("/x"), ShouldBeFalse)
	})
}

func TestPortfolioItemJSON(t *testing.T) {
	Convey("Given a portfolio item", t, func() {
		item := PortfolioItem{
			ID:           "abc",
			Title:        "Logo",
			MainCategory: "Branding",
			SubCategory:  "Logos",
			MediaType:    MediaImage,
			Files:        []string{"uploads/a.png", "uploads/b.png"},
			CreatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		}

		Convey("When encoded as JSON", func() {
			raw, err := json.Marshal(item)
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)

			Convey("Then it uses the API field names", func() {
				So(fields["_id"], ShouldEqual, "abc")
				So(fields["mainCategory"], ShouldEqual, "Branding")
				So(fields["subCategory"], ShouldEqual, "Logos")
				So(fields["mediaType"], ShouldEqual, "image")
				So(fields["createdAt"], ShouldEqual, "2024-05-01T10:00:00Z")
				So(fields["files"], ShouldHaveLength, 2)
			})
		})

		Convey("Then the cover is the first file", func() {
			So(item.Cover(), ShouldEqual, "uploads/a.png")
			So(PortfolioItem{}.Cover(), ShouldEqual, "")
		})
	})
}

func TestCategoryHasSubCategory(t *testing.T) {
	Convey("Given a category", t, func() {
		c := Category{MainCategory: "Web", SubCategories: []string{"Landing", "Shop"}}
		So(c.HasSubCategory("landing"), ShouldBeTrue)
		So(c.HasSubCategory("Blog"), ShouldBeFalse)
	})
}

func TestProjectTypeLabel(t *testing.T) {
	Convey("Given the project types", t, func() {
		So(ProjectGraphicDesign.Label(), ShouldEqual, "Graphic Design")
		So(ProjectWebDevelopment.Label(), ShouldEqual, "Web Development")
		So(ProjectBoth.Label(), ShouldEqual, "Both")
		So(ProjectType("other").Label(), ShouldEqual, "other")
	})
}
