package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pders01/textodon/internal/config"
)

const (
	timelinePath = "/api/v1/timelines/public"
	tagPath      = "/api/v1/timelines/tag/"

	// maxBodySize bounds a single page; a 40-item page is well under 1MB.
	maxBodySize = 8 << 20
)

// Fetcher reads pages of posts from one Mastodon instance. It implements
// the source used by timeline.State.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	limit     int
	userAgent string
}

// NewFetcher builds a fetcher for the configured instance, page size and
// request timeout.
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Feed.HTTPTimeout,
		},
		baseURL:   strings.TrimRight(cfg.Instance.URL, "/"),
		limit:     cfg.Instance.Limit,
		userAgent: cfg.Feed.UserAgent,
	}
}

// Endpoint builds the request URL for mode. Tags are percent-encoded as a
// single path segment, so "a/b" cannot escape the tag route.
func (f *Fetcher) Endpoint(mode Mode) string {
	path := timelinePath
	if mode.IsTag() {
		path = tagPath + url.PathEscape(mode.Tag)
	}

	q := make(url.Values)
	q.Set("limit", strconv.Itoa(f.limit))
	return f.baseURL + path + "?" + q.Encode()
}

// Fetch retrieves one page of items for mode. It never retries.
func (f *Fetcher) Fetch(ctx context.Context, mode Mode) ([]Item, error) {
	endpoint := f.Endpoint(mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		netErr := &NetworkError{URL: endpoint, StatusCode: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			netErr.Err = fmt.Errorf("%s", msg)
		}
		return nil, netErr
	}

	return Parse(io.LimitReader(resp.Body, maxBodySize))
}
