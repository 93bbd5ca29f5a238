package research

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// truncate cuts s to limit runes and appends an ellipsis when it did.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit])) + ellipsis
}

// collapse splits text on line breaks and double spaces, trims every token,
// drops the empty ones and joins the rest with single spaces.
func collapse(text string) string {
	var tokens []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(line, "  ") {
			phrase = strings.TrimSpace(phrase)
			if phrase != "" {
				tokens = append(tokens, phrase)
			}
		}
	}
	return strings.Join(tokens, " ")
}

// oneLine flattens all whitespace runs to single spaces.
func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
