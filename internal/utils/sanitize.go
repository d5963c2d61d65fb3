package utils

import (
	"regexp"
	"strings"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-\s]+`)
	spaces      = regexp.MustCompile(`\s+`)
)

// Sanitize reduces text to ASCII letters, digits and dashes joined by
// underscores, for use in object keys. Empty results fall back to def.
func Sanitize(text, def string) string {
	clean := unsafeChars.ReplaceAllString(text, "")
	clean = spaces.ReplaceAllString(strings.TrimSpace(clean), "_")
	if clean == "" {
		return def
	}
	return strings.ToLower(clean)
}
