package search

import "github.com/pders01/textodon/internal/render"

// Result is one matching item. Results come back best match first.
type Result struct {
	ID    string
	Score float64
}

// Indexer replaces the searchable item set.
type Indexer interface {
	Reindex(items []render.Item) error
}

// Filter narrows the visible list to the ids matching a query.
type Filter interface {
	Indexer
	Matches(query string, limit int) (map[string]bool, error)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
