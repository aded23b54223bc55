package cmd

import (
	"strings"
	"unicode"
)

// sanitizeForDisplay strips control characters before terminal output.
// Stored text is left untouched; this is purely a display concern.
func sanitizeForDisplay(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
