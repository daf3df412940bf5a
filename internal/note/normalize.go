package note

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultWorkspace is used when a request names no workspace.
const DefaultWorkspace = "default"

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases, and collapses internal whitespace to single
// spaces. Names and workspaces are matched on their normalized form.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
