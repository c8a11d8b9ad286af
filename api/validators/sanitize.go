package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input and caps it at maxLen characters without splitting a rune.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return string([]rune(trimmed)[:maxLen])
	}
	return trimmed
}
