package mcp

import (
	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// DocsAction selects the operation of the unified docs tool.
type DocsAction string

const (
	// DocsActionGraph builds the page similarity graph.
	DocsActionGraph DocsAction = "graph"
	// DocsActionPages lists cached pages, optionally filtered by title.
	DocsActionPages DocsAction = "pages"
)

// IsValid reports whether the action is known.
func (a DocsAction) IsValid() bool {
	switch a {
	case DocsActionGraph, DocsActionPages:
		return true
	}
	return false
}

// AskParams defines the parameters for the ask tool.
type AskParams struct {
	// Question is required.
	Question string `json:"question"`
	// Provider overrides the configured LLM provider.
	Provider string `json:"provider,omitempty"`
	// History carries earlier turns of the conversation, oldest first.
	History []knowledge.ChatMessage `json:"history,omitempty"`
	// Trace appends the retrieval audit to the answer.
	Trace bool `json:"trace,omitempty"`
}

// DocsToolParams defines the parameters for the unified docs tool.
// Consolidates: graph, pages
type DocsToolParams struct {
	// Action is required. One of: graph, pages
	Action DocsAction `json:"action"`

	// Seed is the page id to expand around.
	// Optional for: graph (omit for browse mode)
	Seed string `json:"seed,omitempty"`

	// Optional for: graph. Zero means the configured default.
	MaxSeeds  int      `json:"max_seeds,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	MaxNodes  int      `json:"max_nodes,omitempty"`

	// Query filters page titles, case-insensitively.
	// Optional for: pages
	Query string `json:"query,omitempty"`

	// Limit caps the listed pages.
	// Optional for: pages (default: 50)
	Limit int `json:"limit,omitempty"`
}

// ToolResult is the outcome of one tool call.
// Error is set instead of a Go error for failures the client should see.
type ToolResult struct {
	Action  string `json:"action"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}
