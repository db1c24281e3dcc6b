package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/textodon/internal/config"
	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/media"
	"github.com/pders01/textodon/internal/render"
	"github.com/pders01/textodon/internal/search"
	"github.com/pders01/textodon/internal/storage"
	"github.com/pders01/textodon/internal/timeline"
)

// View is the screen the app is showing.
type View int

const (
	ViewFeed View = iota
	ViewReader
	ViewSearch
	ViewFilter
	ViewMedia
)

// chromeHeight is the separator plus the status line.
const chromeHeight = 2

// App is the root bubbletea model.
type App struct {
	config     *config.Config
	state      *timeline.State
	store      *storage.Store
	index      *filterIndex
	launcher   *media.Launcher
	keyHandler *KeyHandler

	feedList    list.Model
	mediaList   list.Model
	viewport    viewport.Model
	tagInput    textinput.Model
	filterInput textinput.Model
	spinner     spinner.Model
	help        help.Model

	view        View
	mediaReturn View
	snapshot    timeline.Snapshot
	loading     bool
	filter      string
	current     *render.Item
	status      string
	statusKind  StatusKind
	statusSeq   int
	width       int
	height      int
	err         error
}

// NewApp wires the UI to state. store and index are optional: without a
// store there is no tag history, and without an index the filter falls back
// to substring matching.
func NewApp(cfg *config.Config, state *timeline.State, store *storage.Store, index *search.Index) *App {
	ApplyColors(cfg.UI.Colors)

	delegate := list.NewDefaultDelegate()
	feedList := list.New([]list.Item{}, delegate, 0, 0)
	feedList.Title = "› " + feed.Timeline().String()
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(false)
	feedList.SetShowHelp(false)
	feedList.KeyMap.Quit.SetEnabled(false)

	mediaList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	mediaList.Title = "› attachments"
	mediaList.SetShowStatusBar(false)
	mediaList.SetFilteringEnabled(false)
	mediaList.SetShowHelp(false)
	mediaList.KeyMap.Quit.SetEnabled(false)

	ti := textinput.New()
	ti.Placeholder = "hashtag (empty for the public timeline)"
	ti.Prompt = "# "
	ti.ShowSuggestions = true
	ti.CharLimit = 100

	fi := textinput.New()
	fi.Placeholder = "Filter loaded posts..."
	fi.Prompt = "› "

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	app := &App{
		config:      cfg,
		state:       state,
		store:       store,
		launcher:    media.NewLauncher(cfg, playerFiles()...),
		feedList:    feedList,
		mediaList:   mediaList,
		viewport:    viewport.New(0, 0),
		tagInput:    ti,
		filterInput: fi,
		spinner:     sp,
		help:        help.New(),
		view:        ViewFeed,
		snapshot:    state.Snapshot(),
	}
	if index != nil {
		app.index = &filterIndex{idx: index}
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func playerFiles() []string {
	return []string{filepath.Join(config.DefaultDir(), "players.toml")}
}

// Init enters the alt screen and starts the first timeline load.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		a.waitForChange(),
		a.load(a.state.LoadTimeline),
		a.spinner.Tick,
		a.loadTagHistory(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case stateChangedMsg:
		return a, tea.Batch(a.applySnapshot(a.state.Snapshot()), a.waitForChange())

	case indexedMsg:
		if msg.err != nil {
			return a, a.setStatus(StatusWarn, fmt.Sprintf("Filter unavailable: %v", msg.err), 5*time.Second)
		}
		// A query typed before the rebuild finished was dropped; rerun it.
		if msg.seq == a.snapshot.Seq && a.filter != "" {
			return a, a.performFilter(a.filter)
		}
		return a, nil

	case filterResultsMsg:
		return a, a.applyFilterResults(msg)

	case tagHistoryMsg:
		a.tagInput.SetSuggestions(msg.tags)
		return a, nil

	case historyChangedMsg:
		a.tagInput.SetSuggestions(msg.tags)
		return a, a.setStatus(StatusInfo, msg.notice, statusTTL)

	case mediaOpenedMsg:
		if msg.err != nil {
			return a, a.setStatus(StatusError, msg.err.Error(), 5*time.Second)
		}
		return a, a.setStatus(StatusSuccess, MsgOpening(msg.what), 2*time.Second)

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case errorMsg:
		return a, a.setStatus(StatusError, msg.err.Error(), 5*time.Second)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	switch a.view {
	case ViewFeed:
		newListModel, cmd := a.feedList.Update(msg)
		a.feedList = newListModel
		cmds = append(cmds, cmd)
	case ViewReader:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
	case ViewMedia:
		newListModel, cmd := a.mediaList.Update(msg)
		a.mediaList = newListModel
		cmds = append(cmds, cmd)
	case ViewSearch:
		newInput, cmd := a.tagInput.Update(msg)
		a.tagInput = newInput
		cmds = append(cmds, cmd)
	case ViewFilter:
		newInput, cmd := a.filterInput.Update(msg)
		a.filterInput = newInput
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	contentHeight := height - chromeHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	a.feedList.SetSize(width, contentHeight)
	a.mediaList.SetSize(width, contentHeight)
	a.viewport.Width = width
	a.viewport.Height = contentHeight

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width
	}
	a.tagInput.Width = inputWidth
	a.filterInput.Width = inputWidth
	a.help.Width = width

	if a.view == ViewReader && a.current != nil {
		a.viewport.SetContent(renderPost(*a.current, width))
	}
}

// applySnapshot mirrors a state transition into the widgets.
func (a *App) applySnapshot(snap timeline.Snapshot) tea.Cmd {
	prev := a.snapshot
	a.snapshot = snap
	a.feedList.Title = "› " + snap.Mode.String()

	switch snap.Status {
	case timeline.StatusLoading:
		a.loading = true
		a.err = nil
		if prev.Seq != snap.Seq {
			a.clearFilter()
			a.setListItems(snap.Items)
		}
		return a.setStatus(StatusInfo, MsgLoading(snap.Mode), 0)

	case timeline.StatusReady:
		a.loading = false
		a.err = nil
		a.clearFilter()
		a.setListItems(snap.Items)
		return tea.Batch(
			a.setStatus(StatusSuccess, MsgLoaded(snap.Mode, len(snap.Items)), 3*time.Second),
			a.reindex(snap.Seq, snap.Items),
		)

	case timeline.StatusFailed:
		a.loading = false
		a.err = snap.Err
		a.clearFilter()
		a.setListItems(nil)
		if a.view == ViewReader || a.view == ViewMedia {
			a.view = ViewFeed
		}
		a.status = ""
		return nil
	}
	return nil
}

func (a *App) setListItems(items []render.Item) {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = postItem{item: item}
	}
	a.feedList.SetItems(listItems)
}

func (a *App) clearFilter() {
	a.filter = ""
	a.filterInput.Reset()
}

func (a *App) applyFilterResults(msg filterResultsMsg) tea.Cmd {
	if msg.query != a.filter || msg.seq != a.snapshot.Seq || msg.stale {
		return nil
	}
	if msg.err != nil {
		return a.setStatus(StatusError, msg.err.Error(), 5*time.Second)
	}
	if msg.ids == nil {
		a.setListItems(a.snapshot.Items)
		return nil
	}

	var kept []render.Item
	for _, item := range a.snapshot.Items {
		if msg.ids[item.ID] {
			kept = append(kept, item)
		}
	}
	a.setListItems(kept)
	a.feedList.Select(0)
	if len(kept) == 0 {
		return a.setStatus(StatusWarn, MsgNoResults, 0)
	}
	return a.setStatus(StatusInfo, MsgResultsCount(len(kept)), 0)
}

func (a *App) selectedItem() (render.Item, bool) {
	if i, ok := a.feedList.SelectedItem().(postItem); ok {
		return i.item, true
	}
	return render.Item{}, false
}

func (a *App) openReader(item render.Item) {
	a.current = &item
	a.view = ViewReader
	a.viewport.SetContent(renderPost(item, a.width))
	a.viewport.GotoTop()
}

// setStatus shows text in the status line. A zero ttl keeps it until the
// next status.
func (a *App) setStatus(kind StatusKind, text string, ttl time.Duration) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	if ttl <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (a *App) View() string {
	contentHeight := a.height - chromeHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	var content string

	switch a.view {
	case ViewFeed:
		content = a.feedView(contentHeight)
	case ViewReader:
		content = a.viewport.View()
	case ViewMedia:
		content = a.mediaList.View()
	case ViewSearch:
		content = a.inputView(contentHeight, "› search hashtag", a.tagInput,
			"Enter: search • Tab: complete • Ctrl+X: forget • Ctrl+L: clear history • Esc: cancel")
	case ViewFilter:
		content = lipgloss.JoinVertical(lipgloss.Top,
			renderInputFrame(a.filterInput.View(), a.filterInput.Focused(), a.filterInput.Width),
			renderHelp("Type to filter • Enter: keep • Esc: clear"),
			a.feedList.View(),
		)
	}

	content = ContentWrapper(a.width, contentHeight).Render(content)

	separatorWidth := a.width
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) feedView(height int) string {
	if a.err != nil {
		return renderCentered(a.width, height, lipgloss.JoinVertical(
			lipgloss.Center,
			ErrorMessageStyle.Render("✗ Could not load "+a.snapshot.Mode.String()),
			"",
			lipgloss.NewStyle().Foreground(TextColor).Width(a.width*4/5).Align(lipgloss.Center).Render(describeLoadError(a.snapshot.Mode, a.err)),
			"",
			renderHelp(fmt.Sprintf("%s: retry • %s: public timeline", a.keyHandler.keys.Refresh.Help().Key, a.keyHandler.keys.Timeline.Help().Key)),
		))
	}
	if len(a.feedList.Items()) == 0 {
		if a.loading {
			return renderCentered(a.width, height, a.spinner.View()+" "+renderMuted(MsgLoading(a.snapshot.Mode)))
		}
		if a.filter != "" {
			return lipgloss.JoinVertical(lipgloss.Top, a.feedList.Title, "", renderMuted(MsgNoResults))
		}
		return renderCentered(a.width, height, GetWelcomeMessage(a.keyHandler.keys.Search.Help().Key))
	}
	return a.feedList.View()
}

func (a *App) inputView(height int, title string, input textinput.Model, helpText string) string {
	return renderCentered(a.width, height, lipgloss.JoinVertical(
		lipgloss.Center,
		TitleStyle.Render(title),
		"",
		renderInputFrame(input.View(), input.Focused(), input.Width),
		"",
		renderHelp(helpText),
	))
}

func (a *App) statusBar() string {
	var left string
	switch {
	case a.loading:
		left = a.spinner.View() + " " + a.statusKind.style().Render(a.status)
	case a.err != nil:
		left = ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err))
	case a.status != "":
		left = a.statusKind.style().Render(a.status)
	}
	if a.filter != "" && a.view != ViewFilter {
		left = strings.TrimSpace(left + " " + renderMuted("[filter: "+a.filter+"]"))
	}

	right := a.help.View(a.keyHandler.helpFor(a.view))
	if left == "" {
		return StatusBarStyle.Width(a.width).Render(right)
	}
	return StatusBarStyle.Width(a.width).Render(left + renderMuted(" • ") + right)
}

type postItem struct {
	item render.Item
}

func (i postItem) Title() string {
	h := i.item.Header
	name := h.DisplayName
	if name == "" {
		name = h.Handle
	}
	return HeaderStyle.Render(name) + " " + HandleStyle.Render("@"+h.Handle) + TimeStyle.Render(" • "+h.Age)
}

func (i postItem) Description() string {
	desc := firstLine(i.item.Body())
	if n := len(i.item.Attachments); n > 0 {
		desc = fmt.Sprintf("▣%d %s", n, desc)
	}
	return desc
}

func (i postItem) FilterValue() string { return i.item.Body() }

type mediaItem struct {
	attachment feed.Attachment
}

func (i mediaItem) Title() string {
	if d := strings.TrimSpace(i.attachment.Description); d != "" {
		return d
	}
	return "(no description)"
}

func (i mediaItem) Description() string {
	return i.attachment.Type + " • " + truncateMiddle(i.attachment.URL, 60)
}

func (i mediaItem) FilterValue() string { return i.attachment.Description }

type stateChangedMsg struct{}

type indexedMsg struct {
	seq uint64
	err error
}

type filterResultsMsg struct {
	seq   uint64
	query string
	// ids is nil when the query is too short to filter on.
	ids map[string]bool
	err error
	// stale is set when the index had not caught up with seq yet.
	stale bool
}

type tagHistoryMsg struct {
	tags []string
}

type historyChangedMsg struct {
	notice string
	tags   []string
}

type mediaOpenedMsg struct {
	what string
	err  error
}

type statusClearMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
