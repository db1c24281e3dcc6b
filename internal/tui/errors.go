package tui

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeLoadError turns a failed load into a short line for the feed
// view. The full error goes to the status bar and the log.
func describeLoadError(mode feed.Mode, err error) string {
	var (
		netErr    *feed.NetworkError
		parseErr  *feed.ParseError
		tsErr     *feed.InvalidTimestampError
		renderErr *render.RenderError
	)
	switch {
	case errors.As(err, &netErr):
		switch {
		case netErr.Timeout():
			return "The instance did not answer in time."
		case netErr.StatusCode == http.StatusNotFound && mode.IsTag():
			return fmt.Sprintf("No feed for %s on this instance.", mode)
		case netErr.StatusCode == http.StatusTooManyRequests:
			return "Rate limited by the instance, try again shortly."
		case netErr.StatusCode != 0:
			return fmt.Sprintf("The instance answered HTTP %d.", netErr.StatusCode)
		default:
			return "Could not reach the instance."
		}
	case errors.As(err, &parseErr), errors.As(err, &tsErr):
		return "The instance sent a response textodon could not read."
	case errors.As(err, &renderErr):
		return fmt.Sprintf("Post %s could not be displayed.", renderErr.ItemID)
	default:
		return err.Error()
	}
}
