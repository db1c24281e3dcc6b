package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/textodon/internal/render"
)

// Index is an in-memory full text index over the items currently on screen.
// It is rebuilt from scratch whenever the feed is replaced.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index
}

var (
	_ Filter       = (*Index)(nil)
	_ DebugStatser = (*Index)(nil)
)

// NewIndex returns an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = standard.Name
	body.Store = false
	body.IncludeTermVectors = false

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = false

	media := bleve.NewTextFieldMapping()
	media.Analyzer = standard.Name
	media.Store = false

	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("body", body)
	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("media", media)

	im.DefaultMapping = dm
	return im
}

func document(item render.Item) map[string]any {
	var media []string
	for _, a := range item.Attachments {
		if d := strings.TrimSpace(a.Description); d != "" {
			media = append(media, d)
		}
	}
	return map[string]any{
		"author": item.Header.DisplayName + " " + item.Header.Handle,
		"body":   item.Body(),
		"tags":   strings.Join(item.Tags, " "),
		"media":  strings.Join(media, " "),
	}
}

// Reindex swaps in a fresh index holding exactly items.
func (x *Index) Reindex(items []render.Item) error {
	next, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating search index: %w", err)
	}

	batch := next.NewBatch()
	for _, item := range items {
		if err := batch.Index(item.ID, document(item)); err != nil {
			_ = next.Close()
			return fmt.Errorf("indexing item %s: %w", item.ID, err)
		}
	}
	if err := next.Batch(batch); err != nil {
		_ = next.Close()
		return fmt.Errorf("indexing items: %w", err)
	}

	x.mu.Lock()
	prev := x.idx
	x.idx = next
	x.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

var fieldBoosts = []struct {
	field string
	boost float64
}{
	{"author", 3.0},
	{"tags", 2.5},
	{"body", 1.0},
	{"media", 0.8},
}

// Search ORs per-term match and prefix queries across every field. Queries
// shorter than two characters match nothing.
func (x *Index) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, fb := range fieldBoosts {
			qm := bleve.NewMatchQuery(tok)
			qm.SetField(fb.field)
			qm.SetBoost(fb.boost)
			qs = append(qs, qm)

			qp := bleve.NewPrefixQuery(tok)
			qp.SetField(fb.field)
			qp.SetBoost(fb.boost * 0.8)
			qs = append(qs, qp)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)

	x.mu.RLock()
	defer x.mu.RUnlock()
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, &Result{ID: h.ID, Score: h.Score})
	}
	return out, nil
}

// Matches returns the set of item IDs matching query.
func (x *Index) Matches(query string, limit int) (map[string]bool, error) {
	results, err := x.Search(query, limit)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.ID] = true
	}
	return ids, nil
}

// DocCount reports total documents in the index.
func (x *Index) DocCount() (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	return err
}
