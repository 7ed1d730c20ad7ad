package report

import (
	"strings"
	"unicode/utf8"
)

// printablePath replaces bytes that could move the cursor or start a
// terminal escape sequence with '?'. That covers C0 and C1 control
// characters, DEL and invalid UTF-8.
func printablePath(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) || r == utf8.RuneError {
			return '?'
		}
		return r
	}, s)
}
