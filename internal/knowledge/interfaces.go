package knowledge

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/josephgoksu/DocWing/internal/llm"
)

// Searcher abstracts the vector index.
// Results are ranked by descending score; the core never re-sorts them.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// LanguageModel abstracts the chat completion providers.
type LanguageModel interface {
	Complete(ctx context.Context, messages []*schema.Message, opts llm.CompletionOptions) (string, error)
	CompleteStream(ctx context.Context, messages []*schema.Message, opts llm.CompletionOptions) (*schema.StreamReader[*schema.Message], error)
}

// PageCatalog is the read-only page-metadata cache.
type PageCatalog interface {
	Page(pageID string) (PageEntry, bool)
	// Pages returns entries in catalog order.
	Pages() []PageEntry
}

// Tracer receives prepared prompts and retrieval traces.
// Implementations must not block the request and must not panic.
type Tracer interface {
	TracePrompt(ctx context.Context, label, requestID string, messages []*schema.Message)
	TraceRetrieval(ctx context.Context, requestID string, trace *RetrievalTrace)
}

type nopTracer struct{}

func (nopTracer) TracePrompt(context.Context, string, string, []*schema.Message) {}
func (nopTracer) TraceRetrieval(context.Context, string, *RetrievalTrace)       {}
