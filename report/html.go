// CLAUDE:SUMMARY HTML ingestion: bluemonday sanitize, html-to-markdown convert, then the Markdown scanner.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.UGCPolicy()

func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

// ParseHTML sanitizes raw HTML, converts it to Markdown, and runs the
// Markdown scanner on the result. Scripts, styles, and event handlers never
// survive sanitization.
func ParseHTML(src string) (*Document, error) {
	clean := htmlPolicy.Sanitize(src)

	md, err := newMarkdownConverter().ConvertString(clean)
	if err != nil {
		return nil, fmt.Errorf("report: html to markdown: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return nil, fmt.Errorf("report: html input produced no content")
	}
	return ParseMarkdown(md), nil
}

// ContentType names a supported input format.
type ContentType string

const (
	ContentMarkdown ContentType = "markdown"
	ContentJSON     ContentType = "json"
	ContentHTML     ContentType = "html"
)

// Parse dispatches to the format-specific parser.
func Parse(src string, ct ContentType) (*Document, error) {
	switch ct {
	case ContentMarkdown, "":
		return ParseMarkdown(src), nil
	case ContentJSON:
		return ParseJSON(src, "")
	case ContentHTML:
		return ParseHTML(src)
	default:
		return nil, fmt.Errorf("report: unsupported content type %q", ct)
	}
}

// TypeForName maps a file name to a content type by extension. Empty when
// the extension is not recognized; callers fall back to Detect.
func TypeForName(name string) ContentType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt":
		return ContentMarkdown
	case ".json":
		return ContentJSON
	case ".html", ".htm":
		return ContentHTML
	}
	return ""
}

// Detect guesses the content type from the payload itself: JSON when it
// decodes, HTML when it opens with a tag, Markdown otherwise.
func Detect(src string) ContentType {
	s := strings.TrimSpace(src)
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return ContentJSON
	}
	low := strings.ToLower(s)
	if strings.HasPrefix(low, "<!doctype") || strings.HasPrefix(low, "<html") || strings.HasPrefix(low, "<body") || strings.HasPrefix(low, "<div") {
		return ContentHTML
	}
	return ContentMarkdown
}
