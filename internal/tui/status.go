package tui

import (
	"fmt"
	"time"

	"github.com/pders01/textodon/internal/feed"
)

// statusTTL is how long transient notices stay in the status line.
const statusTTL = 3 * time.Second

// Canonical short status messages used across the app.
const (
	MsgRefreshing     = "Refreshing…"
	MsgNoResults      = "No results"
	MsgFilterCleared  = "Filter cleared"
	MsgNoMedia        = "Nothing to open"
	MsgNoSelection    = "No post selected"
	MsgHistoryCleared = "Tag history cleared"
)

func MsgLoading(mode feed.Mode) string {
	return fmt.Sprintf("Loading %s…", mode)
}

func MsgLoaded(mode feed.Mode, count int) string {
	if count == 1 {
		return fmt.Sprintf("1 post from %s", mode)
	}
	return fmt.Sprintf("%d posts from %s", count, mode)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgTagForgotten(tag string) string {
	return fmt.Sprintf("Forgot #%s", tag)
}

func MsgOpening(what string) string {
	return fmt.Sprintf("Opening %s…", what)
}
