package mcp

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// FormatAnswer renders an answer followed by its numbered sources.
func FormatAnswer(resp *knowledge.AnswerResponse) string {
	if resp == nil {
		return "No answer."
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(resp.Answer))

	if len(resp.References) > 0 {
		sb.WriteString("\n\n## Sources\n")
		for _, ref := range resp.References {
			sb.WriteString(fmt.Sprintf("%d. ", ref.Index))
			if ref.URL != "" {
				sb.WriteString(fmt.Sprintf("[%s](%s)", ref.Title, ref.URL))
			} else {
				sb.WriteString(fmt.Sprintf("**%s**", ref.Title))
			}
			if ref.Score != nil {
				sb.WriteString(fmt.Sprintf(" %s %.2f", scoreToBar(*ref.Score), *ref.Score))
			}
			sb.WriteString("\n")
		}
		if resp.RetrievalTrace != nil && resp.RetrievalTrace.FallbackApplied {
			sb.WriteString("\n_Sources matched below the usual relevance threshold._\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// FormatTrace renders the retrieval audit as a compact table.
func FormatTrace(trace *knowledge.RetrievalTrace) string {
	if trace == nil {
		return "## Retrieval\nNo trace."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Retrieval\nThreshold %.2f", trace.Threshold))
	if trace.FallbackApplied && trace.FallbackThreshold != nil {
		sb.WriteString(fmt.Sprintf(", fallback %.2f", *trace.FallbackThreshold))
	}
	sb.WriteString("\n\n| # | Score | Used | Title |\n|---|---|---|---|\n")
	for _, e := range trace.Results {
		used := ""
		if e.Included {
			used = "yes"
		}
		title := e.Title
		if e.Heading != "" {
			title += " > " + e.Heading
		}
		sb.WriteString(fmt.Sprintf("| %d | %.4f | %s | %s |\n", e.Index, e.Score, used, truncate(title, 80)))
	}
	return strings.TrimSpace(sb.String())
}

// FormatGraph renders nodes and their strongest edges.
func FormatGraph(g *knowledge.Graph, seed string) string {
	if g == nil || len(g.Nodes) == 0 {
		return "No pages in the graph."
	}

	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}

	var sb strings.Builder
	if seed != "" {
		sb.WriteString(fmt.Sprintf("## Pages related to %s\n", labelOr(labels, seed)))
	} else {
		sb.WriteString("## Pages\n")
	}
	for _, n := range g.Nodes {
		sb.WriteString(fmt.Sprintf("- **%s** `%s`", n.Label, n.ID))
		if n.SpaceKey != "" {
			sb.WriteString(" " + n.SpaceKey)
		}
		sb.WriteString(fmt.Sprintf(" (%d chunks)\n", n.ChunkCount))
	}

	if len(g.Edges) > 0 {
		sb.WriteString("\n## Links\n")
		for _, e := range g.Edges {
			sb.WriteString(fmt.Sprintf("- %s <-> %s %s %.2f\n",
				labelOr(labels, e.Source), labelOr(labels, e.Target), scoreToBar(e.Weight), e.Weight))
		}
	}
	return strings.TrimSpace(sb.String())
}

// FormatPages lists up to limit pages.
func FormatPages(pages []knowledge.PageEntry, limit int) string {
	if len(pages) == 0 {
		return "No pages found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Pages (%d)\n", len(pages)))
	for i, p := range pages {
		if i == limit {
			sb.WriteString(fmt.Sprintf("\n_%d more not shown._\n", len(pages)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("- **%s** `%s`", p.PageTitle, p.PageID))
		if p.SpaceKey != "" {
			sb.WriteString(" " + p.SpaceKey)
		}
		sb.WriteString(fmt.Sprintf(" (%d chunks)\n", p.ChunkCount))
	}
	return strings.TrimSpace(sb.String())
}

// FormatError returns a standardized Markdown error message.
func FormatError(message string) string {
	return fmt.Sprintf("## Error\n\n**Details**: %s", message)
}

// FormatValidationError returns a Markdown error for validation failures.
func FormatValidationError(field, message string) string {
	return fmt.Sprintf("## Validation Error\n\n**Field**: `%s`\n**Details**: %s", field, message)
}

func labelOr(labels map[string]string, id string) string {
	if l, ok := labels[id]; ok && l != "" {
		return l
	}
	return id
}

// truncate shortens a string to maxLen runes and adds ellipsis
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// scoreToBar converts a 0-1 score to a visual bar
func scoreToBar(score float64) string {
	bars := int(score * 5)
	if bars < 1 && score > 0 {
		bars = 1
	}
	if bars > 5 {
		bars = 5
	}
	return strings.Repeat("█", bars) + strings.Repeat("░", 5-bars)
}
