package knowledge

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/josephgoksu/DocWing/internal/llm"
)

// fakeSearcher returns canned results keyed by query.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]SearchResult
	errs    map[string]error
	// fallback is returned for queries without an entry.
	fallback []SearchResult
	calls    []string
	ks       []int
}

func (f *fakeSearcher) Search(_ context.Context, query string, k int) ([]SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	f.ks = append(f.ks, k)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	if r, ok := f.results[query]; ok {
		return r, nil
	}
	return f.fallback, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeModel records the last prompt and replies with canned text.
type fakeModel struct {
	reply   string
	deltas  []string
	err     error
	lastMsg []*schema.Message
	lastOpt llm.CompletionOptions
}

func (m *fakeModel) Complete(_ context.Context, msgs []*schema.Message, opts llm.CompletionOptions) (string, error) {
	m.lastMsg, m.lastOpt = msgs, opts
	return m.reply, m.err
}

func (m *fakeModel) CompleteStream(_ context.Context, msgs []*schema.Message, opts llm.CompletionOptions) (*schema.StreamReader[*schema.Message], error) {
	m.lastMsg, m.lastOpt = msgs, opts
	if m.err != nil {
		return nil, m.err
	}
	parts := make([]*schema.Message, 0, len(m.deltas))
	for _, d := range m.deltas {
		parts = append(parts, schema.AssistantMessage(d, nil))
	}
	return schema.StreamReaderFromArray(parts), nil
}

// fakeTracer records trace calls.
type fakeTracer struct {
	mu       sync.Mutex
	labels   []string
	requests []string
	traces   []*RetrievalTrace
}

func (t *fakeTracer) TracePrompt(_ context.Context, label, requestID string, _ []*schema.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.labels = append(t.labels, label)
	t.requests = append(t.requests, requestID)
}

func (t *fakeTracer) TraceRetrieval(_ context.Context, _ string, trace *RetrievalTrace) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.traces = append(t.traces, trace)
}

// panickingTracer fails on every call.
type panickingTracer struct{}

func (panickingTracer) TracePrompt(context.Context, string, string, []*schema.Message) {
	panic("sink down")
}

func (panickingTracer) TraceRetrieval(context.Context, string, *RetrievalTrace) {
	panic("sink down")
}

// fakeCatalog is an ordered in-memory page catalog.
type fakeCatalog struct {
	pages []PageEntry
}

func (c *fakeCatalog) Page(id string) (PageEntry, bool) {
	for _, p := range c.pages {
		if p.PageID == id {
			return p, true
		}
	}
	return PageEntry{}, false
}

func (c *fakeCatalog) Pages() []PageEntry {
	return c.pages
}

func hit(id, pageID string, score float64) SearchResult {
	return SearchResult{
		Chunk: Chunk{ID: id, PageID: pageID, Title: "Page " + pageID, Content: "content of " + id},
		Score: score,
	}
}
