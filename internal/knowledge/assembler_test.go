package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleContext_DedupesByPage(t *testing.T) {
	results := []SearchResult{
		hit("c1", "P1", 0.9),
		hit("c2", "P2", 0.85),
		hit("c3", "P1", 0.8),
		{Chunk: Chunk{ID: "c4", Title: "Loose chunk", Content: "no page"}, Score: 0.7},
	}

	context, refs := AssembleContext(results)

	require.Len(t, refs, 3)
	for i, r := range refs {
		assert.Equal(t, i+1, r.Index, "indices are contiguous from 1")
	}
	assert.Equal(t, "P1", refs[0].PageID)
	assert.Equal(t, 0.9, *refs[0].Score, "score of the first chunk of the page")
	assert.Equal(t, "P2", refs[1].PageID)
	assert.Equal(t, "Loose chunk", refs[2].Title, "chunk id keys pages without a page id")

	sections := strings.Split(context, ContextSeparator)
	require.Len(t, sections, 4, "every result keeps its own section")
	assert.True(t, strings.HasPrefix(sections[0], "[1] "))
	assert.True(t, strings.HasPrefix(sections[1], "[2] "))
	assert.True(t, strings.HasPrefix(sections[2], "[1] "), "repeat page reuses its index")
	assert.True(t, strings.HasPrefix(sections[3], "[3] "))
}

func TestAssembleContext_SectionFormat(t *testing.T) {
	results := []SearchResult{{
		Chunk: Chunk{
			ID:          "c1",
			PageID:      "P1",
			Title:       "Deploy Guide",
			Heading:     "Rollback",
			HeadingPath: "Operations > Rollback",
			SpaceKey:    "OPS",
			SourceURL:   "https://wiki.example.com/ops/deploy",
			Content:     "  Run the rollback job.  ",
		},
		Score: 0.8,
	}}

	context, refs := AssembleContext(results)

	want := "[1] Deploy Guide > Operations > Rollback\n" +
		"Space: OPS\n" +
		"Source: https://wiki.example.com/ops/deploy\n" +
		"\n" +
		"Run the rollback job."
	assert.Equal(t, want, context)
	assert.Equal(t, "https://wiki.example.com/ops/deploy", refs[0].URL)
}

func TestAssembleContext_Empty(t *testing.T) {
	context, refs := AssembleContext(nil)
	assert.Empty(t, context)
	assert.Empty(t, refs)
}
