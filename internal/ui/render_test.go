package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

func score(v float64) *float64 { return &v }

func TestReferences_Plain(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{Out: &buf}

	r.References([]knowledge.Reference{
		{Index: 1, Title: "Deploy Guide", URL: "https://wiki/deploy", Score: score(0.912)},
		{Index: 2, Title: "Rollback"},
	}, true)

	out := buf.String()
	assert.Contains(t, out, "References")
	assert.Contains(t, out, "[1] Deploy Guide (0.91)")
	assert.Contains(t, out, "    https://wiki/deploy")
	assert.Contains(t, out, "[2] Rollback\n")
	assert.Contains(t, out, "Matches were weak")
	assert.NotContains(t, out, "\x1b[", "plain output has no escape codes")
}

func TestReferences_Empty(t *testing.T) {
	var buf bytes.Buffer
	(&Renderer{Out: &buf}).References(nil, false)
	assert.Equal(t, "No documentation matched this question.\n", buf.String())
}

func TestReferences_Styled(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	var buf bytes.Buffer
	(&Renderer{Out: &buf, Styled: true}).References([]knowledge.Reference{{Index: 1, Title: "Deploy"}}, false)
	assert.Contains(t, buf.String(), "Deploy")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPages_Table(t *testing.T) {
	var buf bytes.Buffer
	(&Renderer{Out: &buf}).Pages([]knowledge.PageEntry{
		{PageID: "p1", PageTitle: "Deploy Guide", SpaceKey: "OPS", ChunkCount: 3},
		{PageID: "p22", PageTitle: strings.Repeat("x", 80), ChunkCount: 1},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID   TITLE"))
	assert.True(t, strings.HasPrefix(lines[1], "p1   Deploy Guide"))
	assert.Contains(t, lines[2], "…")
}

func TestGraph(t *testing.T) {
	var buf bytes.Buffer
	(&Renderer{Out: &buf}).Graph(&knowledge.Graph{
		Nodes: []knowledge.GraphNode{{ID: "a", Label: "Alpha", Size: 7.5, ChunkCount: 2}, {ID: "b", Label: "Beta", Size: 6}},
		Edges: []knowledge.GraphEdge{{Source: "a", Target: "b", Weight: 0.75}},
	})

	out := buf.String()
	assert.Contains(t, out, "Nodes (2)")
	assert.Contains(t, out, "Edges (1)")
	assert.Contains(t, out, "Alpha   Beta    0.750")
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.False(t, NewRenderer(&bytes.Buffer{}).Styled)
}
