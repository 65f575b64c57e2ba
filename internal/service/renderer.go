package service

import (
	"bytes"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns stored markdown into sanitized HTML and strips markup from
// plain-text fields.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
	plain     *bluemonday.Policy
}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	// UGCPolicy allows basic formatting like links, lists and tables while
	// stripping scripts, styles and event handlers.
	return &Renderer{
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
		plain:     bluemonday.StrictPolicy(),
	}
}

// HTML renders markdown and sanitizes the result.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.sanitizer.Sanitize(buf.String()), nil
}

// Plain strips every tag from s. The policy escapes entities on the way out;
// they are decoded again so plain text round-trips.
func (r *Renderer) Plain(s string) string {
	return html.UnescapeString(r.plain.Sanitize(s))
}
