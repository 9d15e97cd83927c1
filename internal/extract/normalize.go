package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CleanText is applied to every string read from HTML before it is compared or
// stored: NFC, every whitespace run (NBSP included) collapsed to one space,
// trailing ASCII and full-width colons stripped, trimmed. It is idempotent.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return r == ':' || r == '：' || unicode.IsSpace(r)
	})
}

// NormalizeKey is the comparison form of a label or value. Never display it.
func NormalizeKey(s string) string {
	// A Caser carries state; one per call keeps this safe for concurrent use.
	lower := cases.Lower(language.Und).String(CleanText(s))
	return strings.Join(strings.Fields(lower), " ")
}
