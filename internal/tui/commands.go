package tui

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/textodon/internal/debuglog"
	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
	"github.com/pders01/textodon/internal/search"
)

// waitForChange blocks until the timeline state transitions.
func (a *App) waitForChange() tea.Cmd {
	ch := a.state.Changed()
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

// load issues a state operation. The operations only start a fetch; the
// result arrives through waitForChange.
func (a *App) load(op func()) tea.Cmd {
	return func() tea.Msg {
		op()
		return nil
	}
}

func (a *App) loadTagHistory() tea.Cmd {
	if a.store == nil || !a.config.History.Enabled {
		return nil
	}
	size := a.config.History.Size
	return func() tea.Msg {
		uses, err := a.store.RecentTags(size)
		if err != nil {
			return errorMsg{err: wrapErr("loading tag history", err)}
		}
		tags := make([]string, len(uses))
		for i, u := range uses {
			tags[i] = u.Tag
		}
		return tagHistoryMsg{tags: tags}
	}
}

func (a *App) recordTag(tag string) tea.Cmd {
	if a.store == nil || !a.config.History.Enabled || tag == "" {
		return nil
	}
	size := a.config.History.Size
	return tea.Sequence(
		func() tea.Msg {
			err := retryOperation(func() error { return a.store.RecordTag(tag, time.Now()) })
			if err == nil && size > 0 {
				err = retryOperation(func() error { return a.store.Prune(size) })
			}
			if err != nil {
				return errorMsg{err: wrapErr("saving tag history", err)}
			}
			return nil
		},
		a.loadTagHistory(),
	)
}

// forgetTag removes one tag from the history and returns the remaining
// suggestions.
func (a *App) forgetTag(tag string) tea.Cmd {
	if tag == "" {
		return nil
	}
	return a.editTagHistory(MsgTagForgotten(tag), "forgetting tag", func() error {
		return a.store.DeleteTag(tag)
	})
}

func (a *App) clearTagHistory() tea.Cmd {
	return a.editTagHistory(MsgHistoryCleared, "clearing tag history", a.store.ClearTags)
}

func (a *App) editTagHistory(notice, action string, edit func() error) tea.Cmd {
	if a.store == nil || !a.config.History.Enabled {
		return nil
	}
	size := a.config.History.Size
	return func() tea.Msg {
		if err := retryOperation(edit); err != nil {
			return errorMsg{err: wrapErr(action, err)}
		}
		uses, err := a.store.RecentTags(size)
		if err != nil {
			return errorMsg{err: wrapErr("loading tag history", err)}
		}
		tags := make([]string, len(uses))
		for i, u := range uses {
			tags[i] = u.Tag
		}
		return historyChangedMsg{notice: notice, tags: tags}
	}
}

func (a *App) reindex(seq uint64, items []render.Item) tea.Cmd {
	if a.index == nil {
		return nil
	}
	return func() tea.Msg {
		return indexedMsg{seq: seq, err: a.index.replace(seq, items)}
	}
}

func (a *App) performFilter(query string) tea.Cmd {
	seq := a.snapshot.Seq
	items := a.snapshot.Items
	index := a.index
	return func() tea.Msg {
		if len([]rune(strings.TrimSpace(query))) < 2 {
			return filterResultsMsg{seq: seq, query: query}
		}
		if index == nil {
			return filterResultsMsg{seq: seq, query: query, ids: substringMatches(items, query)}
		}
		ids, indexed, err := index.matches(query, len(items))
		return filterResultsMsg{seq: seq, query: query, ids: ids, err: err, stale: indexed != seq}
	}
}

// substringMatches is the filter used when no search index is available.
func substringMatches(items []render.Item, query string) map[string]bool {
	q := strings.ToLower(strings.TrimSpace(query))
	ids := make(map[string]bool)
	for _, item := range items {
		haystack := strings.ToLower(item.Header.String() + "\n" + item.Body())
		if strings.Contains(haystack, q) {
			ids[item.ID] = true
		}
	}
	return ids
}

func (a *App) openAttachment(att feed.Attachment) tea.Cmd {
	return func() tea.Msg {
		what := att.Description
		if what == "" {
			what = att.Type
		}
		return mediaOpenedMsg{what: truncateEnd(what, 40), err: a.launcher.OpenAttachment(att)}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return mediaOpenedMsg{what: truncateMiddle(url, 40), err: a.launcher.OpenURL(url)}
	}
}

// filterIndex serializes rebuilds of the search index and drops rebuilds
// for snapshots older than the one already indexed. seq is the snapshot the
// index currently holds.
type filterIndex struct {
	mu  sync.Mutex
	seq uint64
	idx search.Filter
}

func (f *filterIndex) replace(seq uint64, items []render.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq < f.seq {
		return nil
	}
	f.seq = seq
	if err := f.idx.Reindex(items); err != nil {
		return err
	}
	if stats, ok := f.idx.(search.DebugStatser); ok {
		if n, err := stats.DocCount(); err == nil {
			debuglog.Debugf("search index holds %d posts for seq %d", n, seq)
		}
	}
	return nil
}

// matches runs query against the index and reports which snapshot answered.
func (f *filterIndex) matches(query string, limit int) (map[string]bool, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, err := f.idx.Matches(query, limit)
	return ids, f.seq, err
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				time.Sleep(baseDelay * time.Duration(1<<i))
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
