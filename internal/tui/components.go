package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/textodon/internal/render"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateMiddle(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderPost lays out a full post: header, body, then one styled line per
// described attachment.
func renderPost(item render.Item, width int) string {
	var b strings.Builder
	b.WriteString(renderHeader(item.Header.String(), item.URL, width))
	if item.ProfileURL != "" {
		b.WriteString("\n")
		b.WriteString(renderMuted(truncateMiddle("profile "+item.ProfileURL, width-2)))
	}
	b.WriteString("\n\n")

	for _, block := range item.Blocks {
		switch block.Kind {
		case render.BlockBody:
			b.WriteString(block.Text)
			b.WriteString("\n")
		case render.BlockMedia:
			b.WriteString(MediaStyle.Render("▣ " + strings.TrimSpace(block.Text)))
			b.WriteString("\n")
		}
	}

	if n := len(item.Attachments); n > 0 {
		b.WriteString("\n")
		b.WriteString(renderMuted(attachmentSummary(n)))
		b.WriteString("\n")
	}
	return b.String()
}

func attachmentSummary(n int) string {
	if n == 1 {
		return "1 attachment"
	}
	return fmt.Sprintf("%d attachments", n)
}
