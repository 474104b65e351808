package export

import (
	"strings"
	"unicode"
)

// Abbreviate builds a short code from a course title by taking the first
// letter of each word. Words may be separated by spaces, hyphens or colons;
// leading non-letter characters are skipped so "2D Graphics" becomes "G".
func Abbreviate(title string) string {
	if title == "" {
		return title
	}

	words := strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == '-' || r == ':' || r == '\t'
	})

	var b strings.Builder
	for _, word := range words {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
			}
			break
		}
	}

	if b.Len() == 0 {
		return title
	}
	return b.String()
}
