// Package timeline owns the active feed mode and the rendered item list,
// and serializes the asynchronous fetches that replace them.
package timeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pders01/textodon/internal/debuglog"
	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
	"github.com/pders01/textodon/internal/validation"
)

// Source fetches one page of items. *feed.Fetcher satisfies it.
type Source interface {
	Fetch(ctx context.Context, mode feed.Mode) ([]feed.Item, error)
}

// Renderer projects an item for display. *render.Renderer satisfies it.
type Renderer interface {
	Render(item feed.Item, now time.Time) (render.Item, error)
}

// Status is the phase of the most recent load.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the state. Items is never shared with
// the State; it is replaced wholesale on every successful load.
type Snapshot struct {
	Seq       uint64
	Mode      feed.Mode
	Status    Status
	Items     []render.Item
	Err       error
	UpdatedAt time.Time
}

// State runs at most one fetch at a time. Each load bumps a sequence
// number and cancels the previous request; only the response for the
// latest sequence number may move the state out of Loading.
type State struct {
	source   Source
	renderer Renderer
	timeout  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	seq       uint64
	mode      feed.Mode
	status    Status
	items     []render.Item
	err       error
	updatedAt time.Time
	cancel    context.CancelFunc
	closed    bool

	changed chan struct{}
	wg      sync.WaitGroup
}

// New returns an Empty state in timeline mode. A zero timeout means
// requests are bounded only by the source.
func New(source Source, renderer Renderer, timeout time.Duration) *State {
	return &State{
		source:   source,
		renderer: renderer,
		timeout:  timeout,
		now:      time.Now,
		mode:     feed.Timeline(),
		changed:  make(chan struct{}, 1),
	}
}

// SetClock replaces the clock used for age labels.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// LoadTimeline switches to the public timeline, cancelling any load in
// flight.
func (s *State) LoadTimeline() {
	s.begin(func(feed.Mode) feed.Mode { return feed.Timeline() })
}

// LoadTag switches to the tag's feed. A blank tag, or one that is only
// "#", loads the public timeline instead.
func (s *State) LoadTag(tag string) {
	tag = validation.NormalizeTag(tag)
	if tag == "" {
		s.LoadTimeline()
		return
	}
	s.begin(func(feed.Mode) feed.Mode { return feed.TagSearch(tag) })
}

// Refresh re-fetches the active mode.
func (s *State) Refresh() {
	s.begin(func(current feed.Mode) feed.Mode { return current })
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	var items []render.Item
	if s.items != nil {
		items = make([]render.Item, len(s.items))
		copy(items, s.items)
	}
	return Snapshot{
		Seq:       s.seq,
		Mode:      s.mode,
		Status:    s.status,
		Items:     items,
		Err:       s.err,
		UpdatedAt: s.updatedAt,
	}
}

// Changed receives a value after every state transition. Notifications
// coalesce, so a reader should take a fresh Snapshot each time.
func (s *State) Changed() <-chan struct{} {
	return s.changed
}

// Wait blocks until every fetch started so far has returned.
func (s *State) Wait() {
	s.wg.Wait()
}

// Close cancels the in-flight fetch and waits for it. Later loads are
// ignored.
func (s *State) Close() {
	s.mu.Lock()
	s.closed = true
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *State) begin(pick func(current feed.Mode) feed.Mode) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}

	mode := pick(s.mode)
	if mode != s.mode {
		s.items = nil
	}
	s.seq++
	seq := s.seq
	s.mode = mode
	s.status = StatusLoading
	s.err = nil

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s.cancel = cancel
	now := s.now
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify()
	debuglog.WithFields(map[string]any{"seq": seq, "mode": mode.String()}).Debugf("fetch started")

	go func() {
		defer s.wg.Done()
		defer cancel()
		items, err := s.load(ctx, mode, now)
		s.finish(seq, mode, items, err)
	}()
}

func (s *State) load(ctx context.Context, mode feed.Mode, now func() time.Time) ([]render.Item, error) {
	raw, err := s.source.Fetch(ctx, mode)
	if err != nil {
		return nil, err
	}

	at := now()
	items := make([]render.Item, 0, len(raw))
	for _, item := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rendered, err := s.renderer.Render(item, at)
		if err != nil {
			return nil, err
		}
		items = append(items, rendered)
	}
	return items, nil
}

func (s *State) finish(seq uint64, mode feed.Mode, items []render.Item, err error) {
	log := debuglog.WithFields(map[string]any{"seq": seq, "mode": mode.String()})

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		log.Debugf("superseded response discarded")
		return
	}
	s.cancel = nil
	s.updatedAt = s.now()
	if err != nil {
		s.status = StatusFailed
		s.err = err
		s.items = nil
	} else {
		s.status = StatusReady
		s.items = items
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warnf("fetch timed out: %v", err)
		} else {
			log.Errorf("fetch failed: %v", err)
		}
	} else {
		log.Infof("feed loaded with %d items", len(items))
	}
	s.notify()
}

func (s *State) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
