package knowledge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultChunkTitle replaces an empty chunk title at the search boundary.
const DefaultChunkTitle = "Untitled"

var validate = validator.New()

// NormalizeResults validates raw search hits before they enter the core.
// Hits without an id are dropped, empty titles are coerced and invalid
// source URLs are cleared. Order is preserved.
func NormalizeResults(results []SearchResult) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		c := r.Chunk
		c.ID = strings.TrimSpace(c.ID)
		c.PageID = strings.TrimSpace(c.PageID)
		if strings.TrimSpace(c.Title) == "" {
			c.Title = DefaultChunkTitle
		}

		if err := validate.Struct(c); err != nil {
			if c.ID == "" {
				slog.Warn("dropping search hit without id", "score", r.Score)
				continue
			}
			slog.Debug("clearing invalid chunk source url", "id", c.ID, "url", c.SourceURL)
			c.SourceURL = ""
		}

		out = append(out, SearchResult{Chunk: c, Score: r.Score})
	}
	return out
}

// ValidateHistory checks caller-supplied chat history turns.
func ValidateHistory(history []ChatMessage) error {
	for i := range history {
		if err := validate.Struct(history[i]); err != nil {
			return fmt.Errorf("%w: turn %d: %v", ErrInvalidHistory, i, err)
		}
	}
	return nil
}
