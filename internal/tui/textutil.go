package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// truncateEnd shortens s to at most limit terminal cells, ending in "…".
// Widths are measured in cells so wide runes in display names do not
// overflow the line.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return ansi.Truncate(s, limit, "…")
}

// truncateMiddle keeps both ends of s, which suits URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	width := ansi.StringWidth(s)
	if width <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	left := (limit - 1) / 2
	right := limit - 1 - left
	return ansi.Truncate(s, left, "") + "…" + ansi.TruncateLeft(s, width-right, "")
}

// firstLine returns the first non-blank line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
