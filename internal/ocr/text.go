package ocr

import (
	"regexp"
	"strings"
)

var (
	hyphenBreak = regexp.MustCompile(`-\s*[\r\n]+\s*`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeText joins words hyphenated across line breaks, collapses every
// whitespace run to one space and trims the ends.
func NormalizeText(s string) string {
	s = hyphenBreak.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
