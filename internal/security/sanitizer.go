// Package security sanitizes user-supplied text before it is stored.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup. Product descriptions keep a small set of
// formatting tags; review comments are reduced to plain text.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em", "b", "i", "h3", "h4")
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowStandardURLs()
	rich.RequireNoReferrerOnLinks(true)
	rich.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		rich:  rich,
		plain: bluemonday.StrictPolicy(),
	}
}

// RichText returns HTML safe to render inside a product page.
func (s *Sanitizer) RichText(raw string) string {
	return strings.TrimSpace(s.rich.Sanitize(raw))
}

// PlainText drops every tag and returns unescaped text.
func (s *Sanitizer) PlainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(raw)))
}
