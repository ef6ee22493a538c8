package policy

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var stripAll = bluemonday.StrictPolicy()

// PlainText removes any markup from pasted text and decodes entities, keeping
// line breaks so the parser still sees speaker turns.
func PlainText(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return input
	}
	return html.UnescapeString(stripAll.Sanitize(input))
}

// Truncate limits value to limit runes.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// SanitizeForLog collapses whitespace, drops unprintable runes and truncates.
func SanitizeForLog(value string, limit int) string {
	collapsed := strings.Join(strings.Fields(value), " ")
	cleaned := strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, collapsed)
	return Truncate(cleaned, limit)
}

// LogPreview is the redacted, sanitized form of a transcript used in logs.
func LogPreview(value string) string {
	redacted, _ := RedactPII(value)
	return SanitizeForLog(redacted, 80)
}
