package knowledge

import (
	"fmt"
	"strings"
)

// ContextSeparator divides context sections in the prompt.
const ContextSeparator = "\n\n---\n\n"

// AssembleContext turns included results into prompt context and references.
//
// References are keyed by page id (chunk id when the page id is empty) and
// numbered from 1 in first-seen order. Every result still contributes its own
// section, tagged with the index of its page's reference.
func AssembleContext(results []SearchResult) (string, []Reference) {
	indexByKey := make(map[string]int, len(results))
	references := make([]Reference, 0, len(results))
	sections := make([]string, 0, len(results))

	for _, r := range results {
		key := r.Chunk.referenceKey()
		idx, ok := indexByKey[key]
		if !ok {
			idx = len(references) + 1
			indexByKey[key] = idx

			score := r.Score
			references = append(references, Reference{
				Index:  idx,
				Title:  r.Chunk.Title,
				URL:    r.Chunk.SourceURL,
				Score:  &score,
				PageID: r.Chunk.PageID,
			})
		}
		sections = append(sections, formatSection(idx, r.Chunk))
	}

	return strings.Join(sections, ContextSeparator), references
}

// formatSection renders one chunk as a citable context block.
func formatSection(idx int, c Chunk) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%d] %s", idx, c.Title))
	switch {
	case c.HeadingPath != "":
		sb.WriteString(" > " + c.HeadingPath)
	case c.Heading != "":
		sb.WriteString(" > " + c.Heading)
	}
	sb.WriteString("\n")
	if c.SpaceKey != "" {
		sb.WriteString(fmt.Sprintf("Space: %s\n", c.SpaceKey))
	}
	if c.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", c.SourceURL))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(c.Content))
	return sb.String()
}
