package server

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// commentaryMarkdown renders model commentary. Raw HTML in the source is
// dropped (goldmark's default without html.WithUnsafe).
var commentaryMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Table),
)

// renderCommentary converts model commentary to HTML. On a conversion error
// the text is shown escaped.
func renderCommentary(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := commentaryMarkdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
