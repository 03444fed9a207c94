// Package htmlsanitize strips markup from user-supplied text fields.
//
// The API stores names, titles and descriptions as plain text. Clients render
// them in native views, but the same values also reach web previews, so any
// markup is removed on the way in rather than escaped on the way out.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute. Script and style bodies are
// dropped along with their tags.
var strict = bluemonday.StrictPolicy()

// PlainText removes all markup from s, decodes entities back to characters,
// and trims surrounding whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// PlainTextPtr applies PlainText to an optional value. nil stays nil.
func PlainTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := PlainText(*s)
	return &out
}

// IsPlainText reports whether s contains no markup at all.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
