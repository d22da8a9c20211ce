// Package util provides small shared helpers used across the codebase.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
// It does not account for ANSI escape codes or wide characters; for captured
// terminal content use TruncateANSI instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if
// truncated. Escape sequences and wide characters are measured correctly, so
// it is safe on pane content captured from tmux.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail in the final width
	return ansi.Truncate(s, maxWidth, "...")
}

// LastNonEmptyLine returns the last line of s that contains a non-space
// character, or "" when there is none.
func LastNonEmptyLine(s string) string {
	end := len(s)
	for end > 0 {
		start := end
		for start > 0 && s[start-1] != '\n' {
			start--
		}
		line := s[start:end]
		if hasInk(line) {
			return line
		}
		end = start
		if end > 0 {
			end--
		}
	}
	return ""
}

func hasInk(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
