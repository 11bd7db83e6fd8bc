package config

import (
	"github.com/spf13/viper"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// RetrievalConfig holds the answer-path retrieval settings.
type RetrievalConfig struct {
	TopK                int     `mapstructure:"top_k" validate:"gte=1"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`
	// FallbackThreshold outside (0,1) disables the fallback threshold.
	FallbackThreshold float64 `mapstructure:"fallback_threshold"`
}

// DefaultRetrievalConfig returns the default retrieval configuration.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:                knowledge.DefaultTopK,
		SimilarityThreshold: knowledge.DefaultSimilarityThreshold,
		FallbackThreshold:   knowledge.DefaultFallbackThreshold,
	}
}

// LoadRetrievalConfig loads retrieval configuration from Viper with defaults.
func LoadRetrievalConfig() RetrievalConfig {
	defaults := DefaultRetrievalConfig()
	cfg := RetrievalConfig{
		TopK:                getIntWithDefault("retrieval.top_k", defaults.TopK),
		SimilarityThreshold: clampUnit(getFloat64WithDefault("retrieval.similarity_threshold", defaults.SimilarityThreshold)),
		FallbackThreshold:   getFloat64WithDefault("retrieval.fallback_threshold", defaults.FallbackThreshold),
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	return cfg
}

// GraphConfig holds graph request defaults and the upper bounds applied to
// caller-supplied values.
type GraphConfig struct {
	MaxSeeds  int     `validate:"gte=1,ltefield=MaxSeedsLimit"`
	TopK      int     `validate:"gte=1,ltefield=TopKLimit"`
	Threshold float64 `validate:"gte=0,lte=1"`
	MaxNodes  int     `validate:"gte=1,ltefield=MaxNodesLimit"`

	MaxSeedsLimit int
	TopKLimit     int
	MaxNodesLimit int
}

// DefaultGraphConfig returns the default graph configuration.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		MaxSeeds:      knowledge.DefaultGraphMaxSeeds,
		TopK:          knowledge.DefaultGraphTopK,
		Threshold:     knowledge.DefaultGraphThreshold,
		MaxNodes:      knowledge.DefaultGraphMaxNodes,
		MaxSeedsLimit: 5,
		TopKLimit:     50,
		MaxNodesLimit: 200,
	}
}

// LoadGraphConfig loads graph configuration from Viper with defaults.
func LoadGraphConfig() GraphConfig {
	d := DefaultGraphConfig()
	return GraphConfig{
		MaxSeeds:      getIntWithDefault("graph.max_seeds", d.MaxSeeds),
		TopK:          getIntWithDefault("graph.top_k", d.TopK),
		Threshold:     clampUnit(getFloat64WithDefault("graph.threshold", d.Threshold)),
		MaxNodes:      getIntWithDefault("graph.max_nodes", d.MaxNodes),
		MaxSeedsLimit: getIntWithDefault("graph.limits.max_seeds", d.MaxSeedsLimit),
		TopKLimit:     getIntWithDefault("graph.limits.top_k", d.TopKLimit),
		MaxNodesLimit: getIntWithDefault("graph.limits.max_nodes", d.MaxNodesLimit),
	}
}

// Options applies request values over the configured defaults. Zero or
// negative values take the default; larger ones are capped at the limits.
func (g GraphConfig) Options(seed string, maxSeeds, topK, maxNodes int, threshold *float64) knowledge.GraphOptions {
	opts := knowledge.GraphOptions{
		SeedPageID: seed,
		MaxSeeds:   boundInt(maxSeeds, g.MaxSeeds, g.MaxSeedsLimit),
		TopK:       boundInt(topK, g.TopK, g.TopKLimit),
		MaxNodes:   boundInt(maxNodes, g.MaxNodes, g.MaxNodesLimit),
		Threshold:  g.Threshold,
	}
	if threshold != nil {
		opts.Threshold = clampUnit(*threshold)
	}
	return opts
}

func boundInt(v, def, limit int) int {
	if v <= 0 {
		return def
	}
	if limit > 0 && v > limit {
		return limit
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Helper functions for Viper with defaults

func getFloat64WithDefault(key string, defaultVal float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return defaultVal
}

func getIntWithDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getBoolWithDefault(key string, defaultVal bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultVal
}

func getStringWithDefault(key string, defaultVal string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultVal
}

func getStringSliceWithDefault(key string, defaultVal []string) []string {
	if viper.IsSet(key) {
		return viper.GetStringSlice(key)
	}
	return defaultVal
}
