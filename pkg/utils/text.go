package utils

import "strings"

// SplitParagraphs splits on blank lines and drops empty paragraphs
func SplitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var paragraphs []string
	for _, p := range strings.Split(normalized, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// CountWords counts whitespace separated words
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// TruncateWords keeps the first maxWords words joined by single spaces.
// The input is returned untouched when it is already within the limit.
func TruncateWords(s string, maxWords int) (string, bool) {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s, false
	}
	return strings.Join(words[:maxWords], " "), true
}

// TruncateRunes cuts s to at most maxLen characters
func TruncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// TruncateLog shortens a string for log output
func TruncateLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
