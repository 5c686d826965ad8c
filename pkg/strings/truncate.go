// Package strings holds the text shortening helpers shared by the Sefaria
// client, log redaction and the CLI.
package strings

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks text that was cut.
const Ellipsis = "..."

// MinSummaryLen is the smallest maxLen Summary honors: one rune plus the
// ellipsis.
const MinSummaryLen = 4

// Truncate keeps the first n runes of s and appends Ellipsis when anything
// was cut, so the result may be up to n+3 runes long. It never splits a
// multi-byte character.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + Ellipsis
}

// Summary flattens s to one line, collapsing every whitespace run into a
// single space, and cuts it so that the result including the ellipsis is
// at most maxLen runes.
func Summary(s string, maxLen int) string {
	if maxLen < MinSummaryLen {
		maxLen = MinSummaryLen
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return Truncate(s, maxLen-len(Ellipsis))
}
