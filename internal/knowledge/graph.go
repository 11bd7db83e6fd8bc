package knowledge

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// GraphOptions are the bounded parameters of one graph build.
type GraphOptions struct {
	// SeedPageID selects ego mode; empty means browse mode.
	SeedPageID string
	// MaxSeeds caps the synthetic queries derived from the seed page.
	MaxSeeds  int
	TopK      int
	Threshold float64
	MaxNodes  int
}

// DefaultGraphOptions returns the graph defaults with no seed.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxSeeds:  DefaultGraphMaxSeeds,
		TopK:      DefaultGraphTopK,
		Threshold: DefaultGraphThreshold,
		MaxNodes:  DefaultGraphMaxNodes,
	}
}

// GraphBuilder turns the page catalog and similarity probes into a page graph.
type GraphBuilder struct {
	catalog  PageCatalog
	searcher Searcher
}

// NewGraphBuilder creates a graph builder.
func NewGraphBuilder(catalog PageCatalog, searcher Searcher) *GraphBuilder {
	return &GraphBuilder{catalog: catalog, searcher: searcher}
}

type edgeKey struct {
	source, target string
}

func canonicalEdge(a, b string) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{source: a, target: b}
}

// graphState accumulates nodes and edges during discovery.
type graphState struct {
	nodeOrder []string
	nodes     map[string]PageEntry
	edgeOrder []edgeKey
	weights   map[edgeKey]float64
}

func newGraphState() *graphState {
	return &graphState{
		nodes:   make(map[string]PageEntry),
		weights: make(map[edgeKey]float64),
	}
}

func (s *graphState) addNode(p PageEntry) bool {
	if _, ok := s.nodes[p.PageID]; ok {
		return false
	}
	s.nodes[p.PageID] = p
	s.nodeOrder = append(s.nodeOrder, p.PageID)
	return true
}

func (s *graphState) addWeight(a, b string, w float64) {
	key := canonicalEdge(a, b)
	if _, ok := s.weights[key]; !ok {
		s.edgeOrder = append(s.edgeOrder, key)
	}
	s.weights[key] += w
}

// Build constructs the graph for opts.
//
// Without a seed it returns up to min(MaxNodes, BrowseSampleLimit) isolated
// nodes. With a seed it returns ErrPageNotFound when the seed is not in the
// catalog. Probe failures contribute no edges; cancellation aborts the build.
func (b *GraphBuilder) Build(ctx context.Context, opts GraphOptions) (*Graph, error) {
	opts = normalizeGraphOptions(opts)

	if strings.TrimSpace(opts.SeedPageID) == "" {
		return b.browse(opts), nil
	}

	seed, ok := b.catalog.Page(opts.SeedPageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, opts.SeedPageID)
	}

	state := newGraphState()
	state.addNode(seed)

	// Seed probes.
	seedHits, err := b.probe(ctx, seedQueries(seed, opts.MaxSeeds), opts.TopK)
	if err != nil {
		return nil, err
	}
	var neighbors []string
	for _, hits := range seedHits {
		best := bestScoreByPage(hits, opts.Threshold, seed.PageID)
		for _, pageID := range pagesInOrder(hits, opts.Threshold, seed.PageID) {
			state.addWeight(seed.PageID, pageID, best[pageID])
			if entry, ok := b.catalog.Page(pageID); ok && state.addNode(entry) {
				neighbors = append(neighbors, pageID)
			}
		}
	}

	// Ego expansion between already-known nodes only.
	if len(neighbors) > EgoNeighborLimit {
		neighbors = neighbors[:EgoNeighborLimit]
	}
	queries := make([]string, len(neighbors))
	for i, id := range neighbors {
		queries[i] = state.nodes[id].PageTitle
	}
	egoHits, err := b.probe(ctx, queries, max(MinEgoProbeK, opts.TopK/2))
	if err != nil {
		return nil, err
	}
	for i, hits := range egoHits {
		from := neighbors[i]
		best := bestScoreByPage(hits, opts.Threshold, from)
		for _, pageID := range pagesInOrder(hits, opts.Threshold, from) {
			if _, known := state.nodes[pageID]; !known {
				continue
			}
			state.addWeight(from, pageID, best[pageID]*EgoEdgeWeightFactor)
		}
	}

	graph := finalizeGraph(state, opts.MaxNodes)
	slog.Debug("graph built",
		"seed", seed.PageID,
		"neighbors", len(neighbors),
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges))
	return graph, nil
}

func (b *GraphBuilder) browse(opts GraphOptions) *Graph {
	limit := min(opts.MaxNodes, BrowseSampleLimit)
	graph := &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for _, p := range b.catalog.Pages() {
		if len(graph.Nodes) >= limit {
			break
		}
		graph.Nodes = append(graph.Nodes, newGraphNode(p, 0))
	}
	return graph
}

// probe runs one search per query with bounded concurrency. Results are
// indexed like queries; a failed probe leaves a nil entry. Only context
// cancellation is returned as an error.
func (b *GraphBuilder) probe(ctx context.Context, queries []string, k int) ([][]SearchResult, error) {
	results := make([][]SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(egoProbeConcurrency)

	for i, q := range queries {
		g.Go(func() error {
			hits, err := b.searcher.Search(gctx, q, k)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("graph probe failed", "query", q, "error", err)
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// seedQueries derives the synthetic queries for a seed page.
func seedQueries(seed PageEntry, maxSeeds int) []string {
	title := strings.TrimSpace(seed.PageTitle)
	if title == "" {
		title = seed.PageID
	}
	queries := []string{title}
	if space := strings.TrimSpace(seed.SpaceKey); space != "" {
		queries = append(queries, space+" "+title)
	}
	if len(queries) > maxSeeds {
		queries = queries[:maxSeeds]
	}
	return queries
}

// bestScoreByPage returns each qualifying page's best score within one probe.
func bestScoreByPage(hits []SearchResult, threshold float64, exclude string) map[string]float64 {
	best := make(map[string]float64)
	for _, h := range hits {
		id := h.Chunk.referenceKey()
		if id == exclude || h.Score < threshold {
			continue
		}
		if cur, ok := best[id]; !ok || h.Score > cur {
			best[id] = h.Score
		}
	}
	return best
}

// pagesInOrder lists qualifying pages of one probe in result order, once each.
func pagesInOrder(hits []SearchResult, threshold float64, exclude string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		id := h.Chunk.referenceKey()
		if id == exclude || h.Score < threshold || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// finalizeGraph truncates nodes, filters and caps edges, then sizes nodes
// from the final edge set.
func finalizeGraph(state *graphState, maxNodes int) *Graph {
	keep := state.nodeOrder
	if len(keep) > maxNodes {
		keep = keep[:maxNodes]
	}
	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	edges := make([]GraphEdge, 0, len(state.edgeOrder))
	for _, key := range state.edgeOrder {
		if kept[key.source] && kept[key.target] {
			edges = append(edges, GraphEdge{Source: key.source, Target: key.target, Weight: state.weights[key]})
		}
	}
	slices.SortStableFunc(edges, func(a, b GraphEdge) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	if limit := max(MinEdgeCap, maxNodes*2); len(edges) > limit {
		edges = edges[:limit]
	}

	degree := make(map[string]int, len(keep))
	for _, e := range edges {
		degree[e.Source]++
		degree[e.Target]++
	}

	nodes := make([]GraphNode, 0, len(keep))
	for _, id := range keep {
		nodes = append(nodes, newGraphNode(state.nodes[id], degree[id]))
	}
	return &Graph{Nodes: nodes, Edges: edges}
}

func newGraphNode(p PageEntry, degree int) GraphNode {
	label := p.PageTitle
	if label == "" {
		label = p.PageID
	}
	return GraphNode{
		ID:         p.PageID,
		Label:      label,
		Size:       nodeSize(degree, p.ChunkCount),
		ChunkCount: p.ChunkCount,
		SpaceKey:   p.SpaceKey,
	}
}

func nodeSize(degree, chunkCount int) float64 {
	size := float64(degree) + math.Log10(float64(chunkCount+1))*2
	return math.Max(MinNodeSize, math.Min(MaxNodeSize, size))
}

func normalizeGraphOptions(o GraphOptions) GraphOptions {
	if o.MaxSeeds <= 0 {
		o.MaxSeeds = DefaultGraphMaxSeeds
	}
	if o.TopK <= 0 {
		o.TopK = DefaultGraphTopK
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultGraphMaxNodes
	}
	o.Threshold = clamp01(o.Threshold)
	return o
}
