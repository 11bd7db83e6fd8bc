// Package mcp provides handlers and Markdown presenters for the MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/llm"
)

// DefaultPageLimit caps the pages action when no limit is given.
const DefaultPageLimit = 50

// Answerer answers questions.
type Answerer interface {
	Answer(ctx context.Context, req knowledge.AnswerRequest) (*knowledge.AnswerResponse, error)
}

// GraphBuilder builds page graphs.
type GraphBuilder interface {
	Build(ctx context.Context, opts knowledge.GraphOptions) (*knowledge.Graph, error)
}

// Catalog lists cached pages.
type Catalog interface {
	Pages() []knowledge.PageEntry
}

// Services are the dependencies of the tool handlers.
type Services struct {
	Answerer Answerer
	Graphs   GraphBuilder
	Catalog  Catalog
	Graph    config.GraphConfig
}

// HandleAsk answers one question from the documentation.
func HandleAsk(ctx context.Context, svc Services, params AskParams) (*ToolResult, error) {
	if strings.TrimSpace(params.Question) == "" {
		return &ToolResult{Action: "ask", Error: "question is required"}, nil
	}

	resp, err := svc.Answerer.Answer(ctx, knowledge.AnswerRequest{
		Question:    params.Question,
		ChatHistory: params.History,
		Provider:    llm.Provider(params.Provider),
	})
	if err != nil {
		if isClientError(err) {
			return &ToolResult{Action: "ask", Error: err.Error()}, nil
		}
		return nil, err
	}

	content := FormatAnswer(resp)
	if params.Trace {
		content += "\n\n" + FormatTrace(resp.RetrievalTrace)
	}
	return &ToolResult{Action: "ask", Content: content}, nil
}

// HandleDocsTool routes the unified docs tool to its action.
func HandleDocsTool(ctx context.Context, svc Services, params DocsToolParams) (*ToolResult, error) {
	if !params.Action.IsValid() {
		return &ToolResult{
			Action: string(params.Action),
			Error:  fmt.Sprintf("invalid action %q, must be one of: graph, pages", params.Action),
		}, nil
	}

	switch params.Action {
	case DocsActionGraph:
		return handleGraph(ctx, svc, params)
	case DocsActionPages:
		return handlePages(svc, params), nil
	default:
		return &ToolResult{Action: string(params.Action), Error: fmt.Sprintf("unsupported action: %s", params.Action)}, nil
	}
}

func handleGraph(ctx context.Context, svc Services, params DocsToolParams) (*ToolResult, error) {
	opts := svc.Graph.Options(strings.TrimSpace(params.Seed), params.MaxSeeds, params.TopK, params.MaxNodes, params.Threshold)
	g, err := svc.Graphs.Build(ctx, opts)
	if err != nil {
		if errors.Is(err, knowledge.ErrPageNotFound) {
			return &ToolResult{Action: "graph", Error: err.Error()}, nil
		}
		return nil, err
	}
	return &ToolResult{Action: "graph", Content: FormatGraph(g, opts.SeedPageID)}, nil
}

func handlePages(svc Services, params DocsToolParams) *ToolResult {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	pages := FilterPages(svc.Catalog.Pages(), params.Query)
	return &ToolResult{Action: "pages", Content: FormatPages(pages, limit)}
}

// FilterPages keeps pages whose title or space key contains query.
// Matching uses Unicode case folding; an empty query keeps every page.
func FilterPages(pages []knowledge.PageEntry, query string) []knowledge.PageEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return pages
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []knowledge.PageEntry
	for _, p := range pages {
		if strings.Contains(fold.String(p.PageTitle), needle) || strings.Contains(fold.String(p.SpaceKey), needle) {
			out = append(out, p)
		}
	}
	return out
}

func isClientError(err error) bool {
	return errors.Is(err, knowledge.ErrEmptyQuestion) ||
		errors.Is(err, knowledge.ErrInvalidHistory) ||
		errors.Is(err, llm.ErrUnsupportedProvider)
}
