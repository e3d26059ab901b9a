package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func upload(name, contentType string, data []byte) Upload {
	return Upload{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestSniff(t *testing.T) {
	Convey("Given file contents", t, func() {
		Convey("When the bytes are a PNG", func() {
			ct, r, err := Sniff(bytes.NewReader(pngHeader), "application/octet-stream")

			Convey("Then the sniffed type wins and the reader replays everything", func() {
				So(err, ShouldBeNil)
				So(ct, ShouldEqual, "image/png")
				all, _ := io.ReadAll(r)
				So(all, ShouldResemble, pngHeader)
			})
		})

		Convey("When sniffing finds no media type", func() {
			ct, _, err := Sniff(strings.NewReader("\x00\x00\x00\x00raw-frames"), "video/x-matroska; codecs=vp9")

			Convey("Then a declared media type is used", func() {
				So(err, ShouldBeNil)
				So(ct, ShouldEqual, "video/x-matroska")
			})
		})

		Convey("When an SVG declares itself an image", func() {
			svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
			ct, _, err := Sniff(bytes.NewReader(svg), "image/svg+xml; charset=utf-8")

			Convey("Then the declared type is ignored", func() {
				So(err, ShouldBeNil)
				So(ct, ShouldEqual, "text/xml")
				So(Scriptable("image/svg+xml"), ShouldBeTrue)
				So(Scriptable("image/png"), ShouldBeFalse)
			})
		})

		Convey("When neither is a media type", func() {
			ct, _, err := Sniff(strings.NewReader("hello"), "text/plain")
			So(err, ShouldBeNil)
			So(ct, ShouldEqual, "text/plain")
		})
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		root := t.TempDir()
		store, err := NewFileStore(root)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When saving an upload", func() {
			obj, err := store.Save(ctx, upload("Logo.PNG", "image/png", pngHeader))

			Convey("Then it gets a content-addressed key", func() {
				So(err, ShouldBeNil)
				So(obj.Created, ShouldBeTrue)
				So(ValidKey(obj.Key), ShouldBeTrue)
				So(strings.HasSuffix(obj.Key, ".png"), ShouldBeTrue)
				So(obj.Size, ShouldEqual, int64(len(pngHeader)))

				data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(obj.Key)))
				So(err, ShouldBeNil)
				So(data, ShouldResemble, pngHeader)
			})

			Convey("Then saving the same bytes again reuses the object", func() {
				again, err := store.Save(ctx, upload("copy.png", "image/png", pngHeader))
				So(err, ShouldBeNil)
				So(again.Key, ShouldEqual, obj.Key)
				So(again.Created, ShouldBeFalse)

				entries, _ := os.ReadDir(filepath.Join(root, "uploads"))
				So(entries, ShouldHaveLength, 1)
			})

			Convey("Then different bytes get a different key", func() {
				other, err := store.Save(ctx, upload("b.png", "image/png", append([]byte{}, append(pngHeader, 1)...)))
				So(err, ShouldBeNil)
				So(other.Key, ShouldNotEqual, obj.Key)
			})

			Convey("Then it can be opened and deleted", func() {
				rc, info, err := store.Open(ctx, obj.Key)
				So(err, ShouldBeNil)
				So(info.ContentType, ShouldEqual, "image/png")
				So(rc.Close(), ShouldBeNil)

				So(store.Delete(ctx, obj.Key), ShouldBeNil)
				_, _, err = store.Open(ctx, obj.Key)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)

				Convey("And deleting again is not an error", func() {
					So(store.Delete(ctx, obj.Key), ShouldBeNil)
				})
			})
		})

		Convey("When the name has no usable extension", func() {
			obj, err := store.Save(ctx, upload("clip", "video/mp4", []byte("not really mp4")))
			So(err, ShouldBeNil)
			So(strings.HasSuffix(obj.Key, ".mp4"), ShouldBeTrue)
		})

		Convey("When the upload is empty", func() {
			_, err := store.Save(ctx, upload("empty.png", "image/png", nil))

			Convey("Then it is rejected and no temp file remains", func() {
				So(errors.Is(err, ErrEmpty), ShouldBeTrue)
				entries, _ := os.ReadDir(filepath.Join(root, "uploads"))
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When keys are malformed", func() {
			So(errors.Is(store.Delete(ctx, "../etc/passwd"), ErrInvalidKey), ShouldBeTrue)
			_, _, err := store.Open(ctx, "uploads/../../x.png")
			So(errors.Is(err, ErrInvalidKey), ShouldBeTrue)
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given a media handler over a stored file", t, func() {
		store, err := NewFileStore(t.TempDir())
		So(err, ShouldBeNil)
		obj, err := store.Save(context.Background(), upload("a.png", "image/png", pngHeader))
		So(err, ShouldBeNil)
		h := Handler(store)

		Convey("When requesting the key", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+obj.Key, nil))

			Convey("Then the file is served with cache headers", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(rec.Header().Get("Cache-Control"), ShouldContainSubstring, "immutable")
				So(rec.Header().Get("Content-Security-Policy"), ShouldContainSubstring, "sandbox")
				So(rec.Header().Get("Content-Disposition"), ShouldBeEmpty)
				So(rec.Body.Bytes(), ShouldResemble, pngHeader)
			})
		})

		Convey("When a stored file has a scriptable type", func() {
			svg, err := store.Save(context.Background(), upload("x.svg", "image/svg+xml", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)))
			So(err, ShouldBeNil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+svg.Key, nil))

			Convey("Then it is sandboxed and offered as a download", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Security-Policy"), ShouldStartWith, "default-src 'none'")
				So(rec.Header().Get("Content-Disposition"), ShouldEqual, "attachment")
			})
		})

		Convey("When requesting a directory, traversal or unknown key", func() {
			for _, p := range []string{"/uploads/", "/uploads/../go.mod", "/uploads/" + strings.Repeat("0", 32) + ".png"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			}
		})

		Convey("When posting", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+obj.Key, nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
