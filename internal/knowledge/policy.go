package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Retrieval is the outcome of one retrieval decision.
type Retrieval struct {
	// Included is the filtered subset used as answer context, in search order.
	Included []SearchResult
	// Raw is every candidate returned by the search.
	Raw   []SearchResult
	Trace *RetrievalTrace
}

// FallbackApplied reports whether a fallback branch produced Included.
func (r *Retrieval) FallbackApplied() bool {
	return r.Trace != nil && r.Trace.FallbackApplied
}

// RetrievalPolicy applies the primary and fallback similarity thresholds.
type RetrievalPolicy struct {
	searcher Searcher
	opts     RetrievalOptions
}

// NewRetrievalPolicy creates a policy. Options are normalized here once.
func NewRetrievalPolicy(searcher Searcher, opts RetrievalOptions) *RetrievalPolicy {
	return &RetrievalPolicy{
		searcher: searcher,
		opts:     opts.Normalize(),
	}
}

// Options returns the normalized options in effect.
func (p *RetrievalPolicy) Options() RetrievalOptions {
	return p.opts
}

// Retrieve runs one search and filters the results.
//
// The primary filter keeps score >= threshold. When it keeps nothing and the
// search returned candidates, the fallback threshold is tried, and when that
// also keeps nothing the single top candidate is used. Both fallback branches
// mark the trace FallbackApplied.
func (p *RetrievalPolicy) Retrieve(ctx context.Context, question string) (*Retrieval, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	raw, err := p.searcher.Search(ctx, question, p.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	kept := filterByScore(raw, p.opts.SimilarityThreshold)
	fallbackApplied := false

	if len(kept) == 0 && len(raw) > 0 && p.opts.fallbackEnabled() {
		fallbackApplied = true
		kept = filterByScore(raw, p.opts.FallbackThreshold)
		if len(kept) == 0 {
			kept = []int{topResult(raw)}
		}
	}

	included := make([]SearchResult, 0, len(kept))
	for _, i := range kept {
		included = append(included, raw[i])
	}
	trace := buildTrace(raw, kept, p.opts, fallbackApplied)

	slog.Debug("retrieval complete",
		"candidates", len(raw),
		"included", len(included),
		"threshold", p.opts.SimilarityThreshold,
		"fallback_applied", fallbackApplied)

	return &Retrieval{
		Included: included,
		Raw:      raw,
		Trace:    trace,
	}, nil
}

// filterByScore returns the positions in results that meet threshold.
func filterByScore(results []SearchResult, threshold float64) []int {
	var out []int
	for i, r := range results {
		if r.Score >= threshold {
			out = append(out, i)
		}
	}
	return out
}

// topResult returns the position of the highest-scoring candidate, first one on ties.
func topResult(results []SearchResult) int {
	best := 0
	for i, r := range results[1:] {
		if r.Score > results[best].Score {
			best = i + 1
		}
	}
	return best
}

// buildTrace audits every raw candidate, marking the positions actually used.
// Positions rather than chunk ids keep duplicate hits apart.
func buildTrace(raw []SearchResult, kept []int, opts RetrievalOptions, fallbackApplied bool) *RetrievalTrace {
	used := make([]bool, len(raw))
	for _, i := range kept {
		used[i] = true
	}

	trace := &RetrievalTrace{
		Threshold:       opts.SimilarityThreshold,
		FallbackApplied: fallbackApplied,
		Results:         make([]RetrievalTraceEntry, 0, len(raw)),
	}
	if fallbackApplied {
		ft := opts.FallbackThreshold
		trace.FallbackThreshold = &ft
	}

	for i, r := range raw {
		trace.Results = append(trace.Results, RetrievalTraceEntry{
			Index:       i + 1,
			ID:          r.Chunk.ID,
			Score:       roundScore(r.Score),
			Title:       r.Chunk.Title,
			Heading:     r.Chunk.Heading,
			HeadingPath: r.Chunk.HeadingPath,
			SpaceKey:    r.Chunk.SpaceKey,
			Included:    used[i],
		})
	}
	return trace
}

func roundScore(score float64) float64 {
	return math.Round(score*traceScorePrecision) / traceScorePrecision
}
