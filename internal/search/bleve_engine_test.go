package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/textodon/internal/feed"
	"github.com/pders01/textodon/internal/render"
)

func item(id, name, handle, body string, tags ...string) render.Item {
	return render.Item{
		ID:     id,
		Header: render.Header{DisplayName: name, Handle: handle, Age: "1m"},
		Blocks: []render.Block{{Kind: render.BlockBody, Markdown: body}},
		Tags:   tags,
	}
}

func seeded(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	withMedia := item("3", "Grace", "grace@hopper.social", "look at this")
	withMedia.Attachments = []feed.Attachment{{URL: "http://x/1", Description: "a sleepy kitten"}}

	require.NoError(t, idx.Reindex([]render.Item{
		item("1", "Ada", "ada", "Writing **Golang** tips today", "golang"),
		item("2", "Linus", "torvalds", "Kernel release notes", "linux"),
		withMedia,
	}))
	return idx
}

func TestIndexSearchesFields(t *testing.T) {
	idx := seeded(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"golang", []string{"1"}},
		{"kernel", []string{"2"}},
		{"linux", []string{"2"}},
		{"grace", []string{"3"}},
		{"kitten", []string{"3"}},
		{"gol", []string{"1"}},
		{"ada kernel", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := idx.Search(tt.query, 10)
			require.NoError(t, err)
			got := make([]string, 0, len(res))
			for _, r := range res {
				got = append(got, r.ID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestIndexShortQuery(t *testing.T) {
	idx := seeded(t)

	for _, q := range []string{"", " ", "a"} {
		res, err := idx.Search(q, 10)
		require.NoError(t, err)
		assert.Empty(t, res, "query %q", q)
	}
}

func TestIndexReindexReplaces(t *testing.T) {
	idx := seeded(t)

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, idx.Reindex([]render.Item{item("9", "Rob", "rob", "plan nine")}))

	n, err = idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := idx.Search("golang", 10)
	require.NoError(t, err)
	assert.Empty(t, res, "items from the previous feed are gone")

	ids, err := idx.Matches("nine", 10)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"9": true}, ids)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "wörld", "42"}, tokenize("Hello, Wörld! 42"))
	assert.Equal(t, []string{"go", "rust"}, tokenize("#go x #rust"))
	assert.Empty(t, tokenize("a b c"))
}
