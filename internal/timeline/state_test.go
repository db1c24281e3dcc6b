package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
)

type response struct {
	items []feed.Item
	err   error
}

// fakeSource blocks each fetch until a response for its mode is released.
type fakeSource struct {
	mu      sync.Mutex
	calls   []feed.Mode
	gates   map[feed.Mode]chan response
	started chan feed.Mode
	// ignoreCancel makes a fetch wait for its response even after its
	// context is done, like a server that answers late.
	ignoreCancel bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		gates:   make(map[feed.Mode]chan response),
		started: make(chan feed.Mode, 16),
	}
}

func (f *fakeSource) gate(mode feed.Mode) chan response {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[mode]
	if !ok {
		g = make(chan response, 4)
		f.gates[mode] = g
	}
	return g
}

func (f *fakeSource) release(mode feed.Mode, items []feed.Item, err error) {
	f.gate(mode) <- response{items: items, err: err}
}

func (f *fakeSource) Fetch(ctx context.Context, mode feed.Mode) ([]feed.Item, error) {
	f.mu.Lock()
	f.calls = append(f.calls, mode)
	f.mu.Unlock()
	f.started <- mode

	g := f.gate(mode)
	if f.ignoreCancel {
		r := <-g
		return r.items, r.err
	}
	select {
	case r := <-g:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeSource) Calls() []feed.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]feed.Mode(nil), f.calls...)
}

func (f *fakeSource) waitStarted(t *testing.T, want feed.Mode) {
	t.Helper()
	select {
	case got := <-f.started:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %v never started", want)
	}
}

type stubRenderer struct {
	failOn string
}

func (r stubRenderer) Render(item feed.Item, now time.Time) (render.Item, error) {
	if item.ID == r.failOn {
		return render.Item{}, &render.RenderError{ItemID: item.ID, Stage: "html", Err: errors.New("bad markup")}
	}
	return render.Item{
		ID: item.ID,
		Header: render.Header{
			DisplayName: item.Account.DisplayName,
			Handle:      item.Account.Acct,
			Age:         render.RelativeAge(item.CreatedAt, now),
		},
		Blocks: []render.Block{{Kind: render.BlockBody, Markdown: item.Content, Text: item.Content}},
	}, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func items(prefix string, n int) []feed.Item {
	out := make([]feed.Item, n)
	for i := range out {
		out[i] = feed.Item{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			Account:   feed.Account{Acct: prefix, DisplayName: prefix},
			CreatedAt: fixedNow.Add(-time.Duration(i) * time.Minute),
			Content:   prefix,
		}
	}
	return out
}

func ids(snap Snapshot) []string {
	out := make([]string, len(snap.Items))
	for i, item := range snap.Items {
		out[i] = item.ID
	}
	return out
}

func newState(t *testing.T, src Source, r Renderer) *State {
	t.Helper()
	s := New(src, r, 2*time.Second)
	s.SetClock(func() time.Time { return fixedNow })
	t.Cleanup(s.Close)
	return s
}

func TestState_Initial(t *testing.T) {
	s := newState(t, newFakeSource(), stubRenderer{})

	snap := s.Snapshot()
	assert.Equal(t, StatusEmpty, snap.Status)
	assert.Equal(t, feed.Timeline(), snap.Mode)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.Seq)
}

func TestState_LoadTimeline(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	src.release(feed.Timeline(), items("tl", 5), nil)
	s.LoadTimeline()
	s.Wait()

	snap := s.Snapshot()
	require.Equal(t, StatusReady, snap.Status)
	assert.NoError(t, snap.Err)
	assert.Equal(t, []string{"tl-0", "tl-1", "tl-2", "tl-3", "tl-4"}, ids(snap), "source order is preserved")
	assert.Equal(t, "tl • tl • 4m", snap.Items[4].Header.String())
	assert.Equal(t, fixedNow, snap.UpdatedAt)
	assert.Equal(t, uint64(1), snap.Seq)
}

func TestState_ChangedNotifies(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	s.LoadTimeline()
	select {
	case <-s.Changed():
	case <-time.After(time.Second):
		t.Fatal("no notification for Loading")
	}
	assert.Equal(t, StatusLoading, s.Snapshot().Status)

	src.release(feed.Timeline(), items("tl", 1), nil)
	require.Eventually(t, func() bool {
		select {
		case <-s.Changed():
			return s.Snapshot().Status == StatusReady
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestState_RefreshKeepsTagMode(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})
	rust := feed.TagSearch("rust")

	src.release(rust, items("rust", 2), nil)
	s.LoadTag("rust")
	s.Wait()

	src.release(rust, items("rust", 3), nil)
	s.Refresh()
	s.Wait()

	assert.Equal(t, []feed.Mode{rust, rust}, src.Calls())
	snap := s.Snapshot()
	assert.Equal(t, rust, snap.Mode)
	assert.Len(t, snap.Items, 3, "refresh replaces the list wholesale")
}

func TestState_BlankTagLoadsTimeline(t *testing.T) {
	for _, tag := range []string{"", "   ", "#", " # "} {
		t.Run(fmt.Sprintf("%q", tag), func(t *testing.T) {
			src := newFakeSource()
			s := newState(t, src, stubRenderer{})

			src.release(feed.TagSearch("go"), items("go", 1), nil)
			s.LoadTag("go")
			s.Wait()

			src.release(feed.Timeline(), items("tl", 2), nil)
			s.LoadTag(tag)
			s.Wait()

			calls := src.Calls()
			require.Len(t, calls, 2)
			assert.Equal(t, feed.Timeline(), calls[1])
			assert.Equal(t, feed.Timeline(), s.Snapshot().Mode)
		})
	}
}

func TestState_TagIsNormalized(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	src.release(feed.TagSearch("golang"), nil, nil)
	s.LoadTag("  #golang ")
	s.Wait()

	assert.Equal(t, []feed.Mode{feed.TagSearch("golang")}, src.Calls())
	assert.Equal(t, StatusReady, s.Snapshot().Status)
}

func TestState_LatestRequestWins(t *testing.T) {
	tests := []struct {
		name          string
		timelineFirst bool
	}{
		{"newer response arrives first", false},
		{"older response arrives first", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.ignoreCancel = true
			s := newState(t, src, stubRenderer{})
			goTag := feed.TagSearch("go")

			s.LoadTimeline()
			src.waitStarted(t, feed.Timeline())
			s.LoadTag("go")
			src.waitStarted(t, goTag)

			if tt.timelineFirst {
				src.release(feed.Timeline(), items("tl", 3), nil)
				assert.Never(t, func() bool {
					return s.Snapshot().Status != StatusLoading
				}, 50*time.Millisecond, 5*time.Millisecond, "a superseded response must not leave Loading")
				src.release(goTag, items("go", 2), nil)
			} else {
				src.release(goTag, items("go", 2), nil)
				require.Eventually(t, func() bool {
					return s.Snapshot().Status == StatusReady
				}, time.Second, 5*time.Millisecond)
				src.release(feed.Timeline(), items("tl", 3), nil)
			}
			s.Wait()

			snap := s.Snapshot()
			require.Equal(t, StatusReady, snap.Status)
			assert.Equal(t, goTag, snap.Mode)
			assert.Equal(t, []string{"go-0", "go-1"}, ids(snap))
			assert.Equal(t, uint64(2), snap.Seq)
		})
	}
}

func TestState_SupersededRequestIsCancelled(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	s.LoadTimeline()
	src.waitStarted(t, feed.Timeline())

	src.release(feed.TagSearch("go"), items("go", 1), nil)
	s.LoadTag("go")
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status, "cancellation of the old request is not a failure")
	assert.NoError(t, snap.Err)
	assert.Equal(t, []string{"go-0"}, ids(snap))
}

func TestState_ParseErrorFails(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	src.release(feed.Timeline(), items("tl", 2), nil)
	s.LoadTimeline()
	s.Wait()

	src.release(feed.Timeline(), nil, &feed.ParseError{Index: 1, Field: "content"})
	s.Refresh()
	s.Wait()

	snap := s.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	var perr *feed.ParseError
	require.ErrorAs(t, snap.Err, &perr)
	assert.Equal(t, "content", perr.Field)
	assert.Empty(t, snap.Items, "a failed load never shows a partial list")
}

func TestState_RenderErrorFails(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{failOn: "tl-1"})

	src.release(feed.Timeline(), items("tl", 3), nil)
	s.LoadTimeline()
	s.Wait()

	snap := s.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	var rerr *render.RenderError
	require.ErrorAs(t, snap.Err, &rerr)
	assert.Equal(t, "tl-1", rerr.ItemID)
	assert.Empty(t, snap.Items)
}

func TestState_LoadingSnapshot(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	src.release(feed.Timeline(), items("tl", 2), nil)
	s.LoadTimeline()
	s.Wait()

	s.Refresh()
	snap := s.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.Len(t, snap.Items, 2, "refresh keeps the current list visible while loading")

	s.LoadTag("go")
	snap = s.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.Empty(t, snap.Items, "switching modes discards the current list")
}

func TestState_Timeout(t *testing.T) {
	src := newFakeSource()
	s := New(src, stubRenderer{}, 30*time.Millisecond)
	defer s.Close()

	s.LoadTimeline()
	s.Wait()

	snap := s.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	assert.ErrorIs(t, snap.Err, context.DeadlineExceeded)
}

func TestState_SnapshotIsACopy(t *testing.T) {
	src := newFakeSource()
	s := newState(t, src, stubRenderer{})

	src.release(feed.Timeline(), items("tl", 2), nil)
	s.LoadTimeline()
	s.Wait()

	snap := s.Snapshot()
	snap.Items[0].ID = "mutated"
	assert.Equal(t, "tl-0", s.Snapshot().Items[0].ID)
}

func TestState_CloseStopsLoads(t *testing.T) {
	src := newFakeSource()
	s := New(src, stubRenderer{}, time.Second)

	s.LoadTimeline()
	src.waitStarted(t, feed.Timeline())
	s.Close()

	s.LoadTag("go")
	s.Wait()

	assert.Equal(t, []feed.Mode{feed.Timeline()}, src.Calls())
	assert.Equal(t, StatusLoading, s.Snapshot().Status, "a closed state never transitions again")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "empty", StatusEmpty.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(9).String())
}
