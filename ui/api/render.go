package api

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders message content as sanitized HTML.
type markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func newMarkdown() *markdown {
	return &markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// render converts content to HTML. Content that fails to convert is shown
// escaped in a pre block.
func (m *markdown) render(content string) string {
	body := strings.TrimSpace(content)
	if body == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(body), &buf); err != nil {
		return "<pre>" + template.HTMLEscapeString(body) + "</pre>"
	}
	return m.policy.Sanitize(buf.String())
}
