package knowledge

// Retrieval defaults.
const (
	// DefaultTopK is the number of raw candidates requested from the vector index.
	DefaultTopK = 6

	// DefaultSimilarityThreshold is the primary inclusion cutoff.
	// Range: 0.0 to 1.0, higher = stricter filtering.
	DefaultSimilarityThreshold = 0.75

	// DefaultFallbackThreshold is the looser cutoff applied only when the
	// primary cutoff excludes every candidate. Valid only strictly inside (0,1).
	DefaultFallbackThreshold = 0.6

	// AnswerTemperature is the fixed sampling temperature for answers.
	AnswerTemperature float32 = 0.2

	// traceScorePrecision rounds trace scores to 4 decimals.
	traceScorePrecision = 1e4
)

// Graph construction constants.
const (
	// BrowseSampleLimit caps the isolated nodes returned without a seed.
	BrowseSampleLimit = 25

	// EgoNeighborLimit caps the neighbours probed during ego expansion.
	EgoNeighborLimit = 10

	// EgoEdgeWeightFactor discounts second-hop associations.
	EgoEdgeWeightFactor = 0.5

	// MinEgoProbeK is the lower bound of k for neighbour probes.
	MinEgoProbeK = 3

	// MinEdgeCap is the lower bound of the returned edge count cap.
	MinEdgeCap = 20

	// Node size bounds for the graph view.
	MinNodeSize = 6.0
	MaxNodeSize = 18.0

	// egoProbeConcurrency bounds parallel neighbour probes.
	egoProbeConcurrency = 4
)

// RetrievalOptions configures a RetrievalPolicy.
type RetrievalOptions struct {
	TopK                int
	SimilarityThreshold float64
	// FallbackThreshold is ignored unless 0 < FallbackThreshold < 1.
	FallbackThreshold float64
}

// DefaultRetrievalOptions returns the default retrieval configuration.
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		TopK:                DefaultTopK,
		SimilarityThreshold: DefaultSimilarityThreshold,
		FallbackThreshold:   DefaultFallbackThreshold,
	}
}

// Normalize clamps thresholds into [0,1] and defaults a non-positive TopK.
// Callers normalize once at configuration time, never per request.
func (o RetrievalOptions) Normalize() RetrievalOptions {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	o.SimilarityThreshold = clamp01(o.SimilarityThreshold)
	return o
}

// fallbackEnabled reports whether the fallback threshold is usable.
func (o RetrievalOptions) fallbackEnabled() bool {
	return o.FallbackThreshold > 0 && o.FallbackThreshold < 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Graph request defaults.
const (
	DefaultGraphMaxSeeds  = 2
	DefaultGraphTopK      = 12
	DefaultGraphThreshold = 0.25
	DefaultGraphMaxNodes  = 40
)
