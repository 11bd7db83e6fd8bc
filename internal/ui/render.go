// Package ui renders CLI output, styled when writing to a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Renderer writes CLI output, with lipgloss styling when Styled is set.
type Renderer struct {
	Out    io.Writer
	Styled bool
}

// NewRenderer styles output only when out is a terminal.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{Out: out, Styled: IsTerminal(out)}
}

func (r *Renderer) render(style lipgloss.Style, s string) string {
	if !r.Styled {
		return s
	}
	return style.Render(s)
}

// References prints the numbered citation list after an answer.
func (r *Renderer) References(refs []knowledge.Reference, fallbackApplied bool) {
	if len(refs) == 0 {
		fmt.Fprintln(r.Out, r.render(StyleSubtle, "No documentation matched this question."))
		return
	}

	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, r.render(StyleSectionTitle, "References"))
	for _, ref := range refs {
		line := fmt.Sprintf("%s %s", r.render(StyleIndex, fmt.Sprintf("[%d]", ref.Index)), r.render(StyleTitle, ref.Title))
		if ref.Score != nil {
			line += r.render(StyleSubtle, fmt.Sprintf(" (%.2f)", *ref.Score))
		}
		fmt.Fprintln(r.Out, line)
		if ref.URL != "" {
			fmt.Fprintln(r.Out, "    "+r.render(StyleLink, ref.URL))
		}
	}
	if fallbackApplied {
		fmt.Fprintln(r.Out, r.render(StyleWarning, "Matches were weak; verify against the sources."))
	}
}

// Pages prints the page catalog as an aligned table.
func (r *Renderer) Pages(pages []knowledge.PageEntry) {
	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, []string{p.PageID, p.PageTitle, p.SpaceKey, fmt.Sprint(p.ChunkCount)})
	}
	r.table([]string{"ID", "TITLE", "SPACE", "CHUNKS"}, rows)
}

// Graph prints nodes by size and the strongest edges.
func (r *Renderer) Graph(g *knowledge.Graph) {
	labels := make(map[string]string, len(g.Nodes))
	nodeRows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
		nodeRows = append(nodeRows, []string{n.ID, n.Label, fmt.Sprintf("%.1f", n.Size), fmt.Sprint(n.ChunkCount)})
	}
	fmt.Fprintln(r.Out, r.render(StyleSectionTitle, fmt.Sprintf("Nodes (%d)", len(g.Nodes))))
	r.table([]string{"ID", "LABEL", "SIZE", "CHUNKS"}, nodeRows)

	if len(g.Edges) == 0 {
		return
	}
	edgeRows := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		edgeRows = append(edgeRows, []string{labels[e.Source], labels[e.Target], fmt.Sprintf("%.3f", e.Weight)})
	}
	fmt.Fprintln(r.Out)
	fmt.Fprintln(r.Out, r.render(StyleSectionTitle, fmt.Sprintf("Edges (%d)", len(g.Edges))))
	r.table([]string{"SOURCE", "TARGET", "WEIGHT"}, edgeRows)
}

// Error prints a user-facing error line.
func (r *Renderer) Error(msg string) {
	fmt.Fprintln(r.Out, r.render(StyleError, "Error: ")+msg)
}

const maxCellWidth = 48

func (r *Renderer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = min(max(widths[i], len(cell)), maxCellWidth)
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = r.render(StyleSubtle, pad(h, widths[i]))
	}
	fmt.Fprintln(r.Out, strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range rows {
		for i := range headers {
			cells[i] = pad(truncate(row[i], widths[i]), widths[i])
		}
		fmt.Fprintln(r.Out, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width < 2 {
		return s[:width]
	}
	return s[:width-1] + "…"
}
