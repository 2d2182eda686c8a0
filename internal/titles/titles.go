// Package titles cleans up free-text book titles before catalog searches.
package titles

import (
	"regexp"
	"strings"
)

var (
	parenthetical = regexp.MustCompile(`\s*\(.*?\)\s*`)
	subtitle      = regexp.MustCompile(`\s*:.*$`)
)

// Normalize drops parenthesized text (original-language titles and the like)
// and any colon-introduced subtitle. The result is meant for search only,
// never for display.
func Normalize(title string) string {
	cleaned := strings.TrimSpace(parenthetical.ReplaceAllString(title, ""))
	return strings.TrimSpace(subtitle.ReplaceAllString(cleaned, ""))
}
