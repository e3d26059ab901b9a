package site

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// markdownInstance is built once; its configuration never changes and
// goldmark.Markdown is safe for concurrent use.
var (
	markdownInstance goldmark.Markdown //nolint:gochecknoglobals // shared renderer
	markdownOnce     sync.Once         //nolint:gochecknoglobals // guards markdownInstance
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Raw HTML stays escaped: descriptions are admin input.
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
	})
	return markdownInstance
}

// renderMarkdown converts source to HTML. Raw HTML in source is omitted.
func renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source)) //nolint:gosec // escaped above
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark drops raw HTML without WithUnsafe
}
