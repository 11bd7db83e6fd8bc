package server

import "github.com/josephgoksu/DocWing/internal/knowledge"

// AnswerRequest is the payload for /api/answer
type AnswerRequest struct {
	Question    string                  `json:"question"`
	ChatHistory []knowledge.ChatMessage `json:"chatHistory,omitempty"`
	Provider    string                  `json:"provider,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
}

// AnswerResponse is the blocking response for /api/answer
type AnswerResponse struct {
	RequestID string `json:"requestId"`
	*knowledge.AnswerResponse
}

// StreamMetadata is the first and the final (done) SSE event of a streamed answer.
type StreamMetadata struct {
	RequestID      string                    `json:"requestId"`
	References     []knowledge.Reference     `json:"references"`
	RetrievalTrace *knowledge.RetrievalTrace `json:"retrievalTrace,omitempty"`
}

// StreamDelta carries one increment of answer text.
type StreamDelta struct {
	Content string `json:"content"`
}

// PageSummary is one row of /api/pages
type PageSummary struct {
	PageID     string `json:"pageId"`
	Title      string `json:"title"`
	SpaceKey   string `json:"spaceKey,omitempty"`
	ChunkCount int    `json:"chunkCount"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SSE event names.
const (
	eventMetadata = "metadata"
	eventDelta    = "delta"
	eventDone     = "done"
	eventError    = "error"
)
