package render

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pders01/textodon/internal/feed"
)

// BlockKind tells body text from attachment lines.
type BlockKind int

const (
	BlockBody BlockKind = iota
	BlockMedia
)

func (k BlockKind) String() string {
	if k == BlockMedia {
		return "media"
	}
	return "body"
}

// Block is one renderable piece of an item. Markdown is the source text and
// Text its terminal rendering.
type Block struct {
	Kind     BlockKind
	Markdown string
	Text     string
}

// Header is the one-line byline of an item.
type Header struct {
	DisplayName string
	Handle      string
	Age         string
}

// String formats the header as "{display_name} • {handle} • {age}".
func (h Header) String() string {
	return h.DisplayName + " • " + h.Handle + " • " + h.Age
}

// Item is the display projection of a feed.Item at a given instant.
type Item struct {
	ID          string
	Header      Header
	Blocks      []Block
	URL         string
	ProfileURL  string
	Tags        []string
	Attachments []feed.Attachment
}

// Body returns the markdown of the body block.
func (i Item) Body() string {
	for _, b := range i.Blocks {
		if b.Kind == BlockBody {
			return b.Markdown
		}
	}
	return ""
}

// RenderError wraps a failed HTML or Markdown conversion.
type RenderError struct {
	ItemID string
	Stage  string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering item %s (%s): %v", e.ItemID, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer turns feed items into display items: sanitized HTML converted to
// Markdown, then styled for the terminal.
type Renderer struct {
	html     HTMLConverter
	markdown MarkdownRenderer
	// glamour renderers keep per-render state; serialize access.
	mu sync.Mutex
}

// New returns a renderer using the given converters.
func New(html HTMLConverter, markdown MarkdownRenderer) *Renderer {
	return &Renderer{html: html, markdown: markdown}
}

// NewDefault wires the bluemonday/html-to-markdown converter and a glamour
// renderer using style.
func NewDefault(style string) (*Renderer, error) {
	md, err := NewMarkdownRenderer(style)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return New(NewHTMLConverter(), md), nil
}

// Render projects item at now. Attachments whose description is empty or
// blank get no media line; other descriptions are used as given.
func (r *Renderer) Render(item feed.Item, now time.Time) (Item, error) {
	body, err := r.html.Convert(item.Content)
	if err != nil {
		return Item{}, &RenderError{ItemID: item.ID, Stage: "html", Err: err}
	}

	blocks := make([]Block, 0, 1+len(item.Attachments))
	blocks = append(blocks, Block{Kind: BlockBody, Markdown: body})
	for _, a := range item.Attachments {
		if strings.TrimSpace(a.Description) == "" {
			continue
		}
		blocks = append(blocks, Block{
			Kind:     BlockMedia,
			Markdown: MediaLine(a.Description, a.URL),
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range blocks {
		text, err := r.markdown.Render(blocks[i].Markdown)
		if err != nil {
			return Item{}, &RenderError{ItemID: item.ID, Stage: "markdown", Err: err}
		}
		blocks[i].Text = strings.Trim(text, "\n")
	}

	return Item{
		ID: item.ID,
		Header: Header{
			DisplayName: item.Account.DisplayName,
			Handle:      item.Account.Acct,
			Age:         RelativeAge(item.CreatedAt, now),
		},
		Blocks:      blocks,
		URL:         item.URL,
		ProfileURL:  item.Account.URL,
		Tags:        item.Tags,
		Attachments: item.Attachments,
	}, nil
}

// MediaLine is the markdown for an attachment with a description.
func MediaLine(description, url string) string {
	return fmt.Sprintf("%s [Link](%s)", description, url)
}
