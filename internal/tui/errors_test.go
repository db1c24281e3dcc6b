package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
)

func TestDescribeLoadError(t *testing.T) {
	tests := []struct {
		name string
		mode feed.Mode
		err  error
		want string
	}{
		{"timeout", feed.Timeline(), &feed.NetworkError{Err: context.DeadlineExceeded}, "The instance did not answer in time."},
		{"unknown tag", feed.TagSearch("nope"), &feed.NetworkError{StatusCode: 404}, "No feed for #nope on this instance."},
		{"timeline 404", feed.Timeline(), &feed.NetworkError{StatusCode: 404}, "The instance answered HTTP 404."},
		{"rate limited", feed.Timeline(), &feed.NetworkError{StatusCode: 429}, "Rate limited by the instance, try again shortly."},
		{"unreachable", feed.Timeline(), &feed.NetworkError{Err: errors.New("connection refused")}, "Could not reach the instance."},
		{"parse", feed.Timeline(), &feed.ParseError{Index: 0, Field: "id"}, "The instance sent a response textodon could not read."},
		{"timestamp", feed.Timeline(), &feed.InvalidTimestampError{ItemID: "1"}, "The instance sent a response textodon could not read."},
		{"render", feed.Timeline(), &render.RenderError{ItemID: "7", Stage: "html", Err: errors.New("x")}, "Post 7 could not be displayed."},
		{"other", feed.Timeline(), fmt.Errorf("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeLoadError(tt.mode, tt.err))
		})
	}
}

func TestWrapErr(t *testing.T) {
	base := errors.New("disk full")
	err := wrapErr("saving tag history", base)
	assert.EqualError(t, err, "saving tag history: disk full")
	assert.ErrorIs(t, err, base)
	assert.NoError(t, wrapErr("anything", nil))
}
