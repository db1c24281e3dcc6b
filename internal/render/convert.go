package render

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
)

// HTMLConverter turns an HTML post body into Markdown.
type HTMLConverter interface {
	Convert(html string) (string, error)
}

// MarkdownRenderer turns Markdown into terminal text.
// *glamour.TermRenderer satisfies it.
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}

type htmlToMarkdown struct {
	policy *bluemonday.Policy
}

// NewHTMLConverter strips bodies down to bluemonday's UGC policy, then
// converts what is left to Markdown.
func NewHTMLConverter() HTMLConverter {
	return &htmlToMarkdown{policy: bluemonday.UGCPolicy()}
}

func (c *htmlToMarkdown) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(c.policy.Sanitize(html))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// NewMarkdownRenderer builds a glamour renderer with word wrap disabled;
// wrapping is left to the terminal. style is a glamour standard style name
// or "auto".
func NewMarkdownRenderer(style string) (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(0)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	return glamour.NewTermRenderer(opts...)
}
