package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeparators   = regexp.MustCompile(`[\s_-]+`)
)

// Slugify turns a human-readable name into a URL-safe identifier.
// Non-ASCII letters are not transliterated: accented characters fall
// outside \w and are dropped ("café" -> "caf").
func Slugify(text string) string {
	s := norm.NFC.String(text)
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
