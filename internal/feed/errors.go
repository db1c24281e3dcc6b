package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError covers transport failures, timeouts and non-2xx responses.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("fetching %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran out of time.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// ParseError reports a malformed payload. Index is -1 when the payload as a
// whole could not be decoded.
type ParseError struct {
	Index int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("decoding feed: %v", e.Err)
	case e.Field != "" && e.Err == nil:
		return fmt.Sprintf("item %d: missing required field %q", e.Index, e.Field)
	case e.Field != "":
		return fmt.Sprintf("item %d: field %q: %v", e.Index, e.Field, e.Err)
	default:
		return fmt.Sprintf("item %d: %v", e.Index, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidTimestampError reports a created_at value that is not RFC 3339.
type InvalidTimestampError struct {
	ItemID string
	Value  string
	Err    error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("item %s: invalid created_at %q: %v", e.ItemID, e.Value, e.Err)
}

func (e *InvalidTimestampError) Unwrap() error { return e.Err }
