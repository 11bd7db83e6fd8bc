package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.1, -2.5, 3.75, 0}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
	assert.Empty(t, decodeVector(nil))
}

func TestSQLiteIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "chunks.db"))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	chunk := knowledge.Chunk{ID: "c1", PageID: "P1", Title: "Old", Content: "old"}
	require.NoError(t, idx.Upsert(ctx, []Record{{Chunk: chunk, Embedding: []float32{1, 0}}}))

	chunk.Title = "New"
	require.NoError(t, idx.Upsert(ctx, []Record{{Chunk: chunk, Embedding: []float32{0, 1}}}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Query(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "New", hits[0].Chunk.Title)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestSQLiteIndex_QuerySkipsMismatchedDimensions(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.Upsert(ctx, []Record{
		{Chunk: knowledge.Chunk{ID: "a"}, Embedding: []float32{1, 0}},
		{Chunk: knowledge.Chunk{ID: "b"}, Embedding: []float32{1, 0, 0}},
	}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Chunk.ID)
}

func TestSQLiteIndex_Pages(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.Upsert(ctx, []Record{
		{Chunk: knowledge.Chunk{ID: "b1", PageID: "B", Title: "Beta", SpaceKey: "ENG"}, Embedding: []float32{1}},
		{Chunk: knowledge.Chunk{ID: "a1", PageID: "A", Title: "Alpha"}, Embedding: []float32{1}},
		{Chunk: knowledge.Chunk{ID: "b2", PageID: "B", Title: "Beta"}, Embedding: []float32{1}},
		{Chunk: knowledge.Chunk{ID: "loose"}, Embedding: []float32{1}},
	}))

	pages, err := idx.Pages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, knowledge.PageEntry{PageID: "B", PageTitle: "Beta", SpaceKey: "ENG", ChunkCount: 2, ChunkIDs: []string{"b1", "b2"}}, pages[0])
	assert.Equal(t, "A", pages[1].PageID)
}
