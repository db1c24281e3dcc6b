package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/textodon/internal/config"
	"github.com/pders01/textodon/internal/validation"
)

type keyMap struct {
	Quit      key.Binding
	Refresh   key.Binding
	Search    key.Binding
	Filter    key.Binding
	Timeline  key.Binding
	OpenMedia key.Binding
	Back      key.Binding
	Read      key.Binding
}

func newKeyMap(b config.KeyBindings) keyMap {
	bind := func(k, desc string) key.Binding {
		keys := strings.Split(k, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], desc))
	}
	return keyMap{
		Quit:      bind(b.Quit, "quit"),
		Refresh:   bind(b.Refresh, "refresh"),
		Search:    bind(b.Search, "tag"),
		Filter:    bind(b.Filter, "filter"),
		Timeline:  bind(b.Timeline, "timeline"),
		OpenMedia: bind(b.OpenMedia, "open"),
		Back:      bind(b.Back, "back"),
		Read:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read")),
	}
}

// viewKeys adapts a binding set to help.KeyMap.
type viewKeys []key.Binding

func (k viewKeys) ShortHelp() []key.Binding  { return k }
func (k viewKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

// KeyHandler routes key presses to app actions, or to the focused widget.
type KeyHandler struct {
	app    *App
	config *config.Config
	keys   keyMap
}

// NewKeyHandler builds the key map from the configured bindings.
func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, config: cfg, keys: newKeyMap(cfg.Keys.Bindings)}
}

// HandleKey gives text inputs first claim on keys while they are focused;
// otherwise app shortcuts win and the rest go to the active component.
func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch:
		return kh.app.tagInput.Focused()
	case ViewFilter:
		return kh.app.filterInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		if kh.app.view == ViewFilter {
			kh.app.filterInput.Blur()
			kh.app.view = ViewFeed
			return kh.app, kh.clearFilter()
		}
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "ctrl+x", "ctrl+l":
		if kh.app.view == ViewSearch {
			return kh.handleHistoryKey(msg.String())
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		input := a.tagInput.Value()
		a.tagInput.Blur()
		a.view = ViewFeed
		a.state.LoadTag(input)
		return a, a.recordTag(validation.NormalizeTag(input))

	case ViewFilter:
		a.filterInput.Blur()
		a.view = ViewFeed
		return a, nil

	default:
		return a, nil
	}
}

// handleHistoryKey edits the tag history from the search view. ctrl+x
// forgets the highlighted suggestion, or the typed tag when nothing is
// highlighted; ctrl+l forgets every tag.
func (kh *KeyHandler) handleHistoryKey(k string) (tea.Model, tea.Cmd) {
	a := kh.app
	if k == "ctrl+l" {
		return a, a.clearTagHistory()
	}
	tag := a.tagInput.CurrentSuggestion()
	if tag == "" {
		tag = validation.NormalizeTag(a.tagInput.Value())
	}
	return a, a.forgetTag(tag)
}

// delegateToTextInput passes the key to the appropriate text input
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewSearch:
		newInput, cmd := a.tagInput.Update(msg)
		a.tagInput = newInput
		return a, cmd

	case ViewFilter:
		prev := a.filterInput.Value()
		newInput, cmd := a.filterInput.Update(msg)
		a.filterInput = newInput
		if query := sanitizeQuery(a.filterInput.Value()); query != sanitizeQuery(prev) {
			a.filter = query
			return a, tea.Batch(cmd, a.performFilter(query))
		}
		return a, cmd

	default:
		return a, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case msg.String() == "ctrl+c", key.Matches(msg, kh.keys.Quit):
		return kh.app, tea.Quit, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedKeys(msg)
	case ViewReader:
		return kh.handleReaderKeys(msg)
	case ViewMedia:
		return kh.handleMediaKeys(msg)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Refresh):
		a.state.Refresh()
		return a, a.setStatus(StatusInfo, MsgRefreshing, 0), true
	case key.Matches(msg, kh.keys.Timeline):
		a.state.LoadTimeline()
		return a, nil, true
	case key.Matches(msg, kh.keys.Search):
		model, cmd := kh.enterInput(ViewSearch, &a.tagInput)
		return model, cmd, true
	case key.Matches(msg, kh.keys.Filter):
		model, cmd := kh.enterInput(ViewFilter, &a.filterInput)
		return model, cmd, true
	case key.Matches(msg, kh.keys.OpenMedia):
		model, cmd := kh.openSelected()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Read):
		item, ok := a.selectedItem()
		if !ok {
			return a, nil, true
		}
		a.openReader(item)
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleReaderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if key.Matches(msg, kh.keys.OpenMedia) {
		model, cmd := kh.openSelected()
		return model, cmd, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleMediaKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() != "enter" {
		return kh.app, nil, false
	}
	if i, ok := kh.app.mediaList.SelectedItem().(mediaItem); ok {
		return kh.app, kh.app.openAttachment(i.attachment), true
	}
	return kh.app, nil, true
}

func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewFeed:
		a.feedList, cmd = a.feedList.Update(msg)
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
	case ViewMedia:
		a.mediaList, cmd = a.mediaList.Update(msg)
	}
	return a, cmd
}

func (kh *KeyHandler) enterInput(view View, input *textinput.Model) (tea.Model, tea.Cmd) {
	a := kh.app
	a.view = view
	if view == ViewSearch {
		input.Reset()
	}
	return a, tea.Batch(input.Focus(), textinput.Blink)
}

// openSelected opens the post's only attachment, offers a picker for
// several, or opens the post itself when it has none.
func (kh *KeyHandler) openSelected() (tea.Model, tea.Cmd) {
	a := kh.app
	item, ok := a.selectedItem()
	if a.view == ViewReader && a.current != nil {
		item, ok = *a.current, true
	}
	if !ok {
		return a, a.setStatus(StatusWarn, MsgNoSelection, statusTTL)
	}

	switch len(item.Attachments) {
	case 0:
		if item.URL == "" {
			return a, a.setStatus(StatusWarn, MsgNoMedia, statusTTL)
		}
		return a, a.openURL(item.URL)
	case 1:
		return a, a.openAttachment(item.Attachments[0])
	}

	items := make([]list.Item, len(item.Attachments))
	for i, att := range item.Attachments {
		items[i] = mediaItem{attachment: att}
	}
	a.current = &item
	a.mediaReturn = a.view
	a.mediaList.SetItems(items)
	a.mediaList.Select(0)
	a.view = ViewMedia
	return a, nil
}

func (kh *KeyHandler) clearFilter() tea.Cmd {
	a := kh.app
	if a.filter == "" && a.filterInput.Value() == "" {
		return nil
	}
	a.clearFilter()
	a.setListItems(a.snapshot.Items)
	return a.setStatus(StatusInfo, MsgFilterCleared, statusTTL)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewReader:
		a.view = ViewFeed
		a.current = nil
	case ViewMedia:
		a.view = a.mediaReturn
		if a.view != ViewReader {
			a.current = nil
		}
	case ViewSearch, ViewFilter:
		a.tagInput.Blur()
		a.filterInput.Blur()
		a.view = ViewFeed
	case ViewFeed:
		return a, kh.clearFilter()
	}
	return a, nil
}

// sanitizeQuery collapses whitespace in a filter query.
func sanitizeQuery(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func (kh *KeyHandler) helpFor(view View) help.KeyMap {
	k := kh.keys
	switch view {
	case ViewFeed:
		return viewKeys{k.Read, k.Refresh, k.Search, k.Filter, k.Timeline, k.OpenMedia, k.Quit}
	case ViewReader:
		return viewKeys{k.OpenMedia, k.Back, k.Quit}
	case ViewMedia:
		return viewKeys{key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")), k.Back}
	default:
		return viewKeys{}
	}
}
