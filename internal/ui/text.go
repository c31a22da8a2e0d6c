package ui

import (
	"strings"
	"unicode/utf8"
)

// Truncate performs end truncation with an ellipsis. UTF-8 safe.
func Truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(text)
	return string(runes[:maxLen-3]) + "..."
}

// WrapText wraps text at word boundaries to fit within maxWidth,
// preserving existing line breaks.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 80
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, maxWidth))
	}
	return out.String()
}

func wrapLine(line string, maxWidth int) string {
	if utf8.RuneCountInString(line) <= maxWidth {
		return line
	}

	var out strings.Builder
	width := 0
	for _, word := range strings.Fields(line) {
		wordLen := utf8.RuneCountInString(word)
		switch {
		case width == 0:
			// First word goes on the line even when too long.
			out.WriteString(word)
			width = wordLen
		case width+1+wordLen <= maxWidth:
			out.WriteString(" ")
			out.WriteString(word)
			width += 1 + wordLen
		default:
			out.WriteString("\n")
			out.WriteString(word)
			width = wordLen
		}
	}
	return out.String()
}

// Pluralize appends "s" for counts other than one.
func Pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
