package httphandler

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// renderMarkdown converts a comment body to sanitized HTML. Comment bodies
// come from arbitrary GitHub users, so the raw goldmark output is always run
// through the sanitizer. Returns empty string for empty input.
func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// renderContextHTML renders a thread's anchor fingerprint as HTML, one <span>
// per line with a class for its diff role:
//   - diff-add: added lines
//   - diff-del: deleted lines
//   - diff-ctx: context lines
//
// The front-end shows this as the excerpt above an unanchored thread.
func renderContextHTML(ctx diff.Context) string {
	if len(ctx) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, line := range ctx {
		if i > 0 {
			buf.WriteByte('\n')
		}

		buf.WriteString(`<span class="`)
		buf.WriteString(classForLineKind(line.Kind))
		buf.WriteString(`">`)
		buf.WriteString(htmlSanitizer.Sanitize(line.Content))
		buf.WriteString(`</span>`)
	}

	return buf.String()
}

func classForLineKind(kind diff.LineKind) string {
	switch kind {
	case diff.LineKindAdd:
		return "diff-add"
	case diff.LineKindDelete:
		return "diff-del"
	default:
		return "diff-ctx"
	}
}
