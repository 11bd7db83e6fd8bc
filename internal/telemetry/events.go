package telemetry

import (
	"time"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// Event names
const (
	EventAnswerServed = "answer_served"
	EventGraphBuilt   = "graph_built"
)

// AnswerServed reports one answered question.
func AnswerServed(c Client, surface string, streamed bool, references int, trace *knowledge.RetrievalTrace, elapsed time.Duration) {
	props := Properties{
		"surface":     surface,
		"streamed":    streamed,
		"references":  references,
		"duration_ms": elapsed.Milliseconds(),
	}
	if trace != nil {
		props["candidates"] = len(trace.Results)
		props["fallback_applied"] = trace.FallbackApplied
	}
	c.Track(EventAnswerServed, props)
}

// GraphBuilt reports one graph build.
func GraphBuilt(c Client, surface string, seeded bool, g *knowledge.Graph, elapsed time.Duration) {
	props := Properties{
		"surface":     surface,
		"seeded":      seeded,
		"duration_ms": elapsed.Milliseconds(),
	}
	if g != nil {
		props["nodes"] = len(g.Nodes)
		props["edges"] = len(g.Edges)
	}
	c.Track(EventGraphBuilt, props)
}
