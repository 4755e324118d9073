package text

import "strings"

// Normalize prepares raw input for the rewrite pipeline: CRLF line
// endings become LF, tabs become two spaces, and outer whitespace is
// trimmed. All span offsets downstream are relative to this text.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "  ")
	return strings.TrimSpace(text)
}
