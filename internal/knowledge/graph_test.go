package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(id, title, space string, chunks int) PageEntry {
	return PageEntry{PageID: id, PageTitle: title, SpaceKey: space, ChunkCount: chunks}
}

func findEdge(g *Graph, a, b string) (GraphEdge, bool) {
	key := canonicalEdge(a, b)
	for _, e := range g.Edges {
		if e.Source == key.source && e.Target == key.target {
			return e, true
		}
	}
	return GraphEdge{}, false
}

func TestGraphBuilder_Browse(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		b := NewGraphBuilder(&fakeCatalog{}, &fakeSearcher{})
		g, err := b.Build(context.Background(), GraphOptions{MaxNodes: 10})
		require.NoError(t, err)
		assert.NotNil(t, g.Nodes)
		assert.NotNil(t, g.Edges)
		assert.Empty(t, g.Nodes)
		assert.Empty(t, g.Edges)
	})

	t.Run("caps at browse sample limit", func(t *testing.T) {
		catalog := &fakeCatalog{}
		for i := range 40 {
			catalog.pages = append(catalog.pages, page(fmt.Sprintf("p%02d", i), "Page", "", 1))
		}
		searcher := &fakeSearcher{}
		b := NewGraphBuilder(catalog, searcher)

		g, err := b.Build(context.Background(), GraphOptions{MaxNodes: 100})
		require.NoError(t, err)
		assert.Len(t, g.Nodes, BrowseSampleLimit)
		assert.Equal(t, "p00", g.Nodes[0].ID, "catalog order")
		assert.Empty(t, g.Edges)
		assert.Zero(t, searcher.callCount())

		g, err = b.Build(context.Background(), GraphOptions{MaxNodes: 5})
		require.NoError(t, err)
		assert.Len(t, g.Nodes, 5)
	})
}

func TestGraphBuilder_UnknownSeed(t *testing.T) {
	b := NewGraphBuilder(&fakeCatalog{}, &fakeSearcher{})
	_, err := b.Build(context.Background(), GraphOptions{SeedPageID: "missing"})
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestGraphBuilder_AccumulatesSeedEdges(t *testing.T) {
	catalog := &fakeCatalog{pages: []PageEntry{
		page("S", "Deploy Guide", "OPS", 4),
		page("N", "Rollback", "OPS", 2),
	}}
	searcher := &fakeSearcher{results: map[string][]SearchResult{
		"Deploy Guide":     {hit("s1", "S", 0.99), hit("n1", "N", 0.5)},
		"OPS Deploy Guide": {hit("n2", "N", 0.4), hit("x1", "X", 0.1)},
	}}
	b := NewGraphBuilder(catalog, searcher)

	g, err := b.Build(context.Background(), GraphOptions{
		SeedPageID: "S", MaxSeeds: 2, TopK: 8, Threshold: 0.25, MaxNodes: 10,
	})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "S", g.Nodes[0].ID, "seed first")
	edge, ok := findEdge(g, "S", "N")
	require.True(t, ok)
	assert.InDelta(t, 0.9, edge.Weight, 1e-9)
	assert.Equal(t, "N", edge.Source, "smaller id first")

	// Seed probes use topK; the ego probe uses max(3, topK/2).
	assert.Contains(t, searcher.ks, 8)
	assert.Contains(t, searcher.ks, 4)
}

func TestGraphBuilder_MaxSeedsLimitsQueries(t *testing.T) {
	catalog := &fakeCatalog{pages: []PageEntry{page("S", "Deploy Guide", "OPS", 1)}}
	searcher := &fakeSearcher{}
	b := NewGraphBuilder(catalog, searcher)

	_, err := b.Build(context.Background(), GraphOptions{SeedPageID: "S", MaxSeeds: 1, TopK: 4, Threshold: 0.2, MaxNodes: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"Deploy Guide"}, searcher.calls)
}

func TestGraphBuilder_CanonicalEgoEdges(t *testing.T) {
	catalog := &fakeCatalog{pages: []PageEntry{
		page("S", "Seed", "", 1),
		page("A", "Alpha", "", 1),
		page("B", "Beta", "", 1),
	}}
	searcher := &fakeSearcher{results: map[string][]SearchResult{
		"Seed":  {hit("a", "A", 0.8), hit("b", "B", 0.6)},
		"Alpha": {hit("b", "B", 0.6), hit("z", "Z", 0.9)},
		"Beta":  {hit("a", "A", 0.6)},
	}}
	b := NewGraphBuilder(catalog, searcher)

	g, err := b.Build(context.Background(), GraphOptions{SeedPageID: "S", TopK: 6, Threshold: 0.25, MaxNodes: 10})
	require.NoError(t, err)

	// Z came from an ego probe and is never introduced.
	assert.Len(t, g.Nodes, 3)

	edge, ok := findEdge(g, "A", "B")
	require.True(t, ok)
	assert.InDelta(t, 0.6, edge.Weight, 1e-9, "(A,B) and (B,A) accumulate at half weight")

	pairs := map[edgeKey]int{}
	for _, e := range g.Edges {
		assert.Less(t, e.Source, e.Target)
		pairs[edgeKey{e.Source, e.Target}]++
	}
	for k, n := range pairs {
		assert.Equal(t, 1, n, "duplicate edge %v", k)
	}

	// Sorted by descending weight.
	for i := 1; i < len(g.Edges); i++ {
		assert.GreaterOrEqual(t, g.Edges[i-1].Weight, g.Edges[i].Weight)
	}
}

func TestGraphBuilder_TruncationAndSizing(t *testing.T) {
	catalog := &fakeCatalog{pages: []PageEntry{
		page("S", "Seed", "", 99),
		page("A", "Alpha", "", 0),
		page("B", "Beta", "", 0),
	}}
	searcher := &fakeSearcher{results: map[string][]SearchResult{
		"Seed": {hit("a", "A", 0.8), hit("b", "B", 0.7)},
	}}
	b := NewGraphBuilder(catalog, searcher)

	g, err := b.Build(context.Background(), GraphOptions{SeedPageID: "S", TopK: 6, Threshold: 0.25, MaxNodes: 2})
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, []string{"S", "A"}, []string{g.Nodes[0].ID, g.Nodes[1].ID})
	require.Len(t, g.Edges, 1, "edges to truncated nodes are dropped")

	// degree 1 + log10(100)*2 = 5, clamped up to the minimum.
	assert.Equal(t, MinNodeSize, g.Nodes[0].Size)
	assert.Equal(t, MinNodeSize, g.Nodes[1].Size)
}

func TestGraphBuilder_ProbeFailureIsPartial(t *testing.T) {
	catalog := &fakeCatalog{pages: []PageEntry{
		page("S", "Seed", "", 1),
		page("A", "Alpha", "", 1),
	}}
	searcher := &fakeSearcher{
		results: map[string][]SearchResult{"Seed": {hit("a", "A", 0.8)}},
		errs:    map[string]error{"Alpha": errors.New("timeout")},
	}
	b := NewGraphBuilder(catalog, searcher)

	g, err := b.Build(context.Background(), GraphOptions{SeedPageID: "S", TopK: 6, Threshold: 0.25, MaxNodes: 10})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestGraphBuilder_Cancelled(t *testing.T) {
	catalog := &fakeCatalog{pages: []PageEntry{page("S", "Seed", "", 1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewGraphBuilder(catalog, &fakeSearcher{})
	_, err := b.Build(ctx, GraphOptions{SeedPageID: "S"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNodeSize(t *testing.T) {
	tests := []struct {
		degree, chunks int
		want           float64
	}{
		{0, 0, MinNodeSize},
		{8, 9, 10},
		{30, 9, MaxNodeSize},
	}
	for _, tt := range tests {
		got := nodeSize(tt.degree, tt.chunks)
		assert.InDelta(t, tt.want, got, 1e-9)
		assert.False(t, math.IsNaN(got))
	}
}

func TestSeedQueries(t *testing.T) {
	assert.Equal(t, []string{"Guide", "OPS Guide"}, seedQueries(page("S", "Guide", "OPS", 1), 2))
	assert.Equal(t, []string{"Guide"}, seedQueries(page("S", "Guide", "", 1), 2))
	assert.Equal(t, []string{"S"}, seedQueries(page("S", "", "", 1), 2))
}
