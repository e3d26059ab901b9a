package seeding

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleManifest = `
categories:
  - mainCategory: Branding
    subCategories: [Logos, Business Cards]
items:
  - title: Acme logo
    description: "**Bold** mark"
    mainCategory: Branding
    subCategory: Logos
    mediaType: image
    files: [media/acme.png]
`

func TestParseManifest(t *testing.T) {
	Convey("Given a manifest document", t, func() {
		Convey("When it is well formed", func() {
			m, err := ParseManifest([]byte(sampleManifest))

			Convey("Then categories and items are decoded", func() {
				So(err, ShouldBeNil)
				So(m.Categories, ShouldHaveLength, 1)
				So(m.Categories[0].SubCategories, ShouldResemble, []string{"Logos", "Business Cards"})
				So(m.Items, ShouldHaveLength, 1)
				So(m.Items[0].Files, ShouldResemble, []string{"media/acme.png"})
			})
		})

		cases := []struct {
			name string
			doc  string
		}{
			{"an unknown key", "categories: []\nextra: 1\n"},
			{"a category without a name", "categories:\n  - subCategories: [A]\n"},
			{"an item without a title", "items:\n  - files: [a.png]\n"},
			{"an item without files", "items:\n  - title: Logo\n"},
		}
		for _, tc := range cases {
			Convey("When it has "+tc.name, func() {
				_, err := ParseManifest([]byte(tc.doc))

				Convey("Then ErrManifest is returned", func() {
					So(errors.Is(err, ErrManifest), ShouldBeTrue)
				})
			})
		}
	})
}

func TestLoadManifest(t *testing.T) {
	Convey("Given a manifest file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "seed.yaml")
		So(os.WriteFile(path, []byte(sampleManifest), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			m, err := LoadManifest(path)

			Convey("Then relative files resolve against its directory", func() {
				So(err, ShouldBeNil)
				So(m.Path("media/acme.png"), ShouldEqual, filepath.Join(dir, "media", "acme.png"))
				So(m.Path("/abs/x.png"), ShouldEqual, "/abs/x.png")
			})
		})

		Convey("When the file is missing", func() {
			_, err := LoadManifest(filepath.Join(dir, "missing.yaml"))

			Convey("Then ErrManifest is returned", func() {
				So(errors.Is(err, ErrManifest), ShouldBeTrue)
			})
		})
	})
}

func TestMergeTags(t *testing.T) {
	Convey("Given existing subcategories", t, func() {
		base := []string{"Logos", "Cards"}

		Convey("When merging overlapping tags", func() {
			out, changed := mergeTags(base, []string{"logos", " Posters ", ""})

			Convey("Then only new tags are appended", func() {
				So(changed, ShouldBeTrue)
				So(out, ShouldResemble, []string{"Logos", "Cards", "Posters"})
				So(base, ShouldResemble, []string{"Logos", "Cards"})
			})
		})

		Convey("When nothing is new", func() {
			_, changed := mergeTags(base, []string{"CARDS"})

			Convey("Then no change is reported", func() {
				So(changed, ShouldBeFalse)
			})
		})
	})
}
