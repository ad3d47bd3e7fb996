package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlStripper = bluemonday.StrictPolicy()

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripHTML removes all markup, keeping the text content.
func stripHTML(s string) string {
	return htmlStripper.Sanitize(s)
}

// sanitizeUTF8 drops invalid byte sequences so values are safe for Postgres.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// cleanText is the standard scrub applied to every free-text field before
// parsing: markup out, encoding fixed, whitespace collapsed.
func cleanText(s string) string {
	return normalizeSpace(sanitizeUTF8(stripHTML(s)))
}

// firstNonEmpty returns the first string with content after trimming.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
