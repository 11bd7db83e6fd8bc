// Package knowledge implements retrieval, answer composition and the page
// graph over the indexed documentation corpus.
package knowledge

// -----------------------------------------------------------------------------
// Retrieved content
// -----------------------------------------------------------------------------

// Chunk is a contiguous unit of page content produced by the indexing pipeline.
// Chunks are read-only once they leave the search client.
type Chunk struct {
	ID          string `json:"id" validate:"required"`
	PageID      string `json:"pageId,omitempty"`
	Title       string `json:"title"`
	Heading     string `json:"heading,omitempty"`
	HeadingPath string `json:"headingPath,omitempty"`
	SpaceKey    string `json:"spaceKey,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty" validate:"omitempty,url"`
	Content     string `json:"content"`
}

// referenceKey groups chunks belonging to the same source document.
func (c Chunk) referenceKey() string {
	if c.PageID != "" {
		return c.PageID
	}
	return c.ID
}

// SearchResult pairs a chunk with its similarity score.
// Scores are a monotonic relevance signal, conventionally in [0,1].
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// -----------------------------------------------------------------------------
// Answer metadata
// -----------------------------------------------------------------------------

// Reference is a numbered citation for one source page.
type Reference struct {
	Index  int      `json:"index"`
	Title  string   `json:"title"`
	URL    string   `json:"url,omitempty"`
	Score  *float64 `json:"score,omitempty"` // Score of the chunk that introduced the reference
	PageID string   `json:"pageId,omitempty"`
}

// RetrievalTraceEntry records one raw search candidate and whether it was used.
type RetrievalTraceEntry struct {
	Index       int     `json:"index"`
	ID          string  `json:"id"`
	Score       float64 `json:"score"` // Rounded to 4 decimals
	Title       string  `json:"title"`
	Heading     string  `json:"heading,omitempty"`
	HeadingPath string  `json:"headingPath,omitempty"`
	SpaceKey    string  `json:"spaceKey,omitempty"`
	Included    bool    `json:"included"`
}

// RetrievalTrace is the audit record of a retrieval decision.
type RetrievalTrace struct {
	Threshold         float64               `json:"threshold"`
	FallbackApplied   bool                  `json:"fallbackApplied"`
	FallbackThreshold *float64              `json:"fallbackThreshold,omitempty"`
	Results           []RetrievalTraceEntry `json:"results"`
}

// AnswerResponse is the result of a blocking answer request.
type AnswerResponse struct {
	Answer         string          `json:"answer"`
	References     []Reference     `json:"references"`
	RetrievalTrace *RetrievalTrace `json:"retrievalTrace,omitempty"`
}

// ChatMessage is one prior turn of the conversation supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// -----------------------------------------------------------------------------
// Page graph
// -----------------------------------------------------------------------------

// PageEntry is the cached per-page embedding metadata produced by the indexer.
type PageEntry struct {
	PageID     string   `json:"pageId"`
	PageTitle  string   `json:"pageTitle"`
	SpaceKey   string   `json:"spaceKey,omitempty"`
	ChunkCount int      `json:"chunkCount"`
	ChunkIDs   []string `json:"chunkIds"`
}

// GraphNode is one page in the graph view.
type GraphNode struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Size       float64 `json:"size"`
	ChunkCount int     `json:"chunkCount"`
	SpaceKey   string  `json:"spaceKey,omitempty"`
}

// GraphEdge links two pages. Source is always the lexicographically smaller id.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Graph is the node/edge response of a graph build.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
