package mcp

import (
	"strings"
	"testing"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

func TestFormatAnswer_Nil(t *testing.T) {
	if got := FormatAnswer(nil); got != "No answer." {
		t.Errorf("expected 'No answer.', got %q", got)
	}
}

func TestFormatAnswer_NoReferences(t *testing.T) {
	got := FormatAnswer(&knowledge.AnswerResponse{Answer: "  I don't know.  "})
	if got != "I don't know." {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestFormatAnswer_FallbackNote(t *testing.T) {
	got := FormatAnswer(&knowledge.AnswerResponse{
		Answer:         "Maybe [1].",
		References:     []knowledge.Reference{{Index: 1, Title: "Runbook"}},
		RetrievalTrace: &knowledge.RetrievalTrace{FallbackApplied: true},
	})
	if !strings.Contains(got, "1. **Runbook**") {
		t.Errorf("expected bold title without url, got %q", got)
	}
	if !strings.Contains(got, "below the usual relevance threshold") {
		t.Error("expected fallback note")
	}
}

func TestFormatGraph_Empty(t *testing.T) {
	if got := FormatGraph(&knowledge.Graph{}, ""); got != "No pages in the graph." {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFormatPages_Empty(t *testing.T) {
	if got := FormatPages(nil, 10); got != "No pages found." {
		t.Errorf("unexpected output %q", got)
	}
}

func TestScoreToBar(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "░░░░░"},
		{0.05, "█░░░░"},
		{0.6, "███░░"},
		{2.4, "█████"},
	}
	for _, tt := range tests {
		if got := scoreToBar(tt.score); got != tt.want {
			t.Errorf("scoreToBar(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo world", 5); got != "héllo..." {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected %q", got)
	}
}
