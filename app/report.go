package app

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderReportHTML converts the backend's markdown report into the HTML
// artifact that gets hashed and anchored. The exact returned bytes are the
// artifact: hashing anything else would break later verification.
func RenderReportHTML(source string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(source), p, renderer)
}
