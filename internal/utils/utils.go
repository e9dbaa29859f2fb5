package utils

import (
	"strings"
	"unicode"
)

// SafeFilename keeps letters, digits, dash, underscore and dot, and turns
// everything else into underscores. An empty result becomes "export".
func SafeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "export"
	}
	return out
}

// NormalizeQuery lowercases and trims a search term.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
