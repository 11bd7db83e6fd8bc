// Package vectorstore implements the similarity search behind the answer
// engine and graph builder over SQLite, Postgres/pgvector or Qdrant.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Record is one chunk with its embedding, as written by the indexer.
type Record struct {
	Chunk     knowledge.Chunk
	Embedding []float32
}

// Index is a vector index over chunks.
// Query returns at most k hits in descending score order.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]knowledge.SearchResult, error)
	Upsert(ctx context.Context, records []Record) error
	Close() error
}

// Client embeds queries and searches an Index. It implements knowledge.Searcher.
type Client struct {
	embedder embedding.Embedder
	index    Index
}

// NewClient creates a search client.
func NewClient(embedder embedding.Embedder, index Index) *Client {
	return &Client{embedder: embedder, index: index}
}

// Search embeds query and returns validated hits.
func (c *Client) Search(ctx context.Context, query string, k int) ([]knowledge.SearchResult, error) {
	vector, err := EmbedQuery(ctx, c.embedder, query)
	if err != nil {
		return nil, err
	}
	hits, err := c.index.Query(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return knowledge.NormalizeResults(hits), nil
}

// Close closes the underlying index.
func (c *Client) Close() error {
	return c.index.Close()
}

var _ knowledge.Searcher = (*Client)(nil)

// EmbedQuery creates a single embedding for text.
func EmbedQuery(ctx context.Context, embedder embedding.Embedder, text string) ([]float32, error) {
	vectors, err := EmbedTexts(ctx, embedder, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts and converts the vectors to float32.
func EmbedTexts(ctx context.Context, embedder embedding.Embedder, texts []string) ([][]float32, error) {
	// Eino returns [][]float64
	vectors64, err := embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	if len(vectors64) != len(texts) {
		return nil, fmt.Errorf("no embedding returned: got %d for %d inputs", len(vectors64), len(texts))
	}

	out := make([][]float32, len(vectors64))
	for i, v := range vectors64 {
		out[i] = make([]float32, len(v))
		for j, f := range v {
			out[i][j] = float32(f)
		}
	}
	return out, nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
