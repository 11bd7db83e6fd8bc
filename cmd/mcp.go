/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/DocWing/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can query
the documentation.

Tools:
  ask   answer a question with numbered sources
  docs  page graph (action=graph) or page listing (action=pages)

The server speaks JSON-RPC over stdio and runs until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// mcpMarkdownResponse wraps Markdown content in an MCP tool result.
func mcpMarkdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// mcpErrorResponse reports a failure to the client as a tool error.
func mcpErrorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: mcp.FormatError(err.Error())}},
		IsError: true,
	}, nil
}

// mcpToolResponse converts a handler result into an MCP tool result.
func mcpToolResponse(result *mcp.ToolResult, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpErrorResponse(err)
	}
	if result.Error != "" {
		return &mcpsdk.CallToolResultFor[any]{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: mcp.FormatValidationError(result.Action, result.Error)}},
			IsError: true,
		}, nil
	}
	return mcpMarkdownResponse(result.Content)
}

func runMCPServer(ctx context.Context) error {
	// NOTE: MCP uses stdio transport. stdout MUST be pure JSON-RPC.
	// All status/debug output goes to stderr only.
	fmt.Fprintln(os.Stderr, "DocWing MCP Server starting...")

	a, err := openApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = a.Close() }()

	if a.Catalog.Len() == 0 {
		fmt.Fprintf(os.Stderr, "⚠  Page cache %s is empty. Run 'docwing index' first.\n", a.Catalog.Path())
	}

	svc := mcp.Services{
		Answerer: a.Engine,
		Graphs:   a.Graphs,
		Catalog:  a.Catalog,
		Graph:    a.Config.Graph,
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "docwing-mcp",
		Version: version,
	}, &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			fmt.Fprintf(os.Stderr, "✓ MCP connection established\n")
			if viper.GetBool("verbose") {
				fmt.Fprintf(os.Stderr, "[DEBUG] Client initialized\n")
			}
		},
	})
	registerMCPTools(server, svc)

	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func registerMCPTools(server *mcpsdk.Server, svc mcp.Services) {
	askTool := &mcpsdk.Tool{
		Name: "ask",
		Description: `Answer a question from the indexed documentation.

Returns the answer with numbered [n] citations and a Sources list.
Pass history for follow-up questions; set trace to see which chunks were used.`,
	}
	mcpsdk.AddTool(server, askTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcp.AskParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcp.HandleAsk(ctx, svc, params.Arguments))
	})

	docsTool := &mcpsdk.Tool{
		Name: "docs",
		Description: `Explore the documentation catalog.

Actions:
- graph: pages related to seed (page id). Omit seed to sample the catalog.
- pages: list cached pages; query filters titles and space keys.`,
	}
	mcpsdk.AddTool(server, docsTool, func(ctx context.Context, session *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[mcp.DocsToolParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return mcpToolResponse(mcp.HandleDocsTool(ctx, svc, params.Arguments))
	})
}
