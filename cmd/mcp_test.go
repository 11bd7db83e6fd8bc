package cmd

import (
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/mcp"
)

func resultText(t *testing.T, res *mcpsdk.CallToolResultFor[any]) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPToolResponse(t *testing.T) {
	tests := []struct {
		name      string
		result    *mcp.ToolResult
		err       error
		wantError bool
		want      string
	}{
		{name: "content", result: &mcp.ToolResult{Action: "ask", Content: "Answer [1]."}, want: "Answer [1]."},
		{name: "tool error", result: &mcp.ToolResult{Action: "ask", Error: "question is required"}, wantError: true, want: "question is required"},
		{name: "go error", err: errors.New("provider down"), wantError: true, want: "provider down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mcpToolResponse(tt.result, tt.err)
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestRegisterMCPTools(t *testing.T) {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "docwing-test", Version: "test"}, nil)
	assert.NotPanics(t, func() {
		registerMCPTools(server, mcp.Services{Graph: config.DefaultGraphConfig()})
	})
}
