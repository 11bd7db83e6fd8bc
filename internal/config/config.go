// Package config loads DocWing configuration from viper into a single Config
// value that is built once at startup and passed into constructors.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/vectorstore"
)

// Config is the full runtime configuration.
type Config struct {
	LLM       LLMConfig
	Retrieval RetrievalConfig
	Graph     GraphConfig
	Store     StoreConfig
	Cache     CacheConfig
	Server    ServerConfig
	Trace     TraceConfig
	Telemetry TelemetryConfig
	Log       LogConfig
	// PromptsDir optionally overrides the built-in prompt texts.
	PromptsDir string
}

// StoreConfig selects the vector index backend.
type StoreConfig struct {
	Backend    string `validate:"oneof=sqlite pgvector qdrant"`
	SQLitePath string
	PGVector   PGVectorConfig
	Qdrant     QdrantConfig
}

// PGVectorConfig configures the Postgres backend.
type PGVectorConfig struct {
	DSN        string
	Table      string
	Dimensions int `validate:"gte=0"`
}

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int `validate:"gte=0"`
}

// CacheConfig locates the page-metadata cache.
type CacheConfig struct {
	Path  string `validate:"required"`
	Watch bool
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int `validate:"gte=1,lte=65535"`
	AllowedOrigins []string
}

// TraceConfig configures prompt and retrieval tracing.
type TraceConfig struct {
	Enabled   bool
	Retrieval bool
	Buffer    int `validate:"gte=1"`
}

// TelemetryConfig configures opt-in usage telemetry.
type TelemetryConfig struct {
	Enabled  bool
	APIKey   string
	Endpoint string
}

// LogConfig configures the default slog handler.
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads the full configuration from viper. Thresholds are clamped here
// so the core never sees out-of-range values.
func Load() (*Config, error) {
	llmCfg, err := LoadLLMConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LLM:       llmCfg,
		Retrieval: LoadRetrievalConfig(),
		Graph:     LoadGraphConfig(),
		Store:     loadStoreConfig(),
		Cache:     loadCacheConfig(),
		Server: ServerConfig{
			Port:           getIntWithDefault("server.port", DefaultPort),
			AllowedOrigins: getStringSliceWithDefault("server.allowed_origins", DefaultAllowedOrigins),
		},
		Trace: TraceConfig{
			Enabled:   getBoolWithDefault("trace.enabled", false),
			Retrieval: getBoolWithDefault("trace.retrieval", false),
			Buffer:    getIntWithDefault("trace.buffer", DefaultTraceBuffer),
		},
		Telemetry: TelemetryConfig{
			Enabled:  getBoolWithDefault("telemetry.enabled", false),
			APIKey:   getStringWithDefault("telemetry.api_key", ""),
			Endpoint: getStringWithDefault("telemetry.endpoint", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getStringWithDefault("log.level", "info")),
			Format: strings.ToLower(getStringWithDefault("log.format", "text")),
		},
		PromptsDir: getStringWithDefault("prompts.dir", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Store.Backend == vectorstore.BackendPGVector && c.Store.PGVector.DSN == "" {
		return fmt.Errorf("invalid configuration: store.pgvector.dsn is required for the pgvector backend")
	}
	if c.Store.Backend == vectorstore.BackendQdrant && c.Store.Qdrant.URL == "" {
		return fmt.Errorf("invalid configuration: store.qdrant.url is required for the qdrant backend")
	}
	return nil
}

// RetrievalOptions converts the retrieval section for the core.
func (c *Config) RetrievalOptions() knowledge.RetrievalOptions {
	return knowledge.RetrievalOptions{
		TopK:                c.Retrieval.TopK,
		SimilarityThreshold: c.Retrieval.SimilarityThreshold,
		FallbackThreshold:   c.Retrieval.FallbackThreshold,
	}.Normalize()
}

// VectorStore converts the store section for vectorstore.Open.
func (c *Config) VectorStore() vectorstore.Config {
	return vectorstore.Config{
		Backend:    c.Store.Backend,
		SQLitePath: c.Store.SQLitePath,
		PGVector: vectorstore.PGVectorConfig{
			DSN:        c.Store.PGVector.DSN,
			Table:      c.Store.PGVector.Table,
			Dimensions: c.Store.PGVector.Dimensions,
		},
		Qdrant: vectorstore.QdrantConfig{
			URL:        c.Store.Qdrant.URL,
			APIKey:     c.Store.Qdrant.APIKey,
			Collection: c.Store.Qdrant.Collection,
			Dimensions: c.Store.Qdrant.Dimensions,
		},
	}
}

// ChatConfigs returns one chat config per provider usable for overrides.
// The configured provider is always present; other providers are included
// when they have credentials (or need none, like Ollama).
func (c *Config) ChatConfigs() map[llm.Provider]llm.Config {
	out := map[llm.Provider]llm.Config{c.LLM.Provider: c.LLM.Chat()}
	for _, p := range []llm.Provider{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderOllama} {
		if _, ok := out[p]; ok {
			continue
		}
		key := c.LLM.APIKeys[p]
		if key == "" && p != llm.ProviderOllama {
			continue
		}
		out[p] = llm.Config{
			Provider:  p,
			Model:     llm.DefaultModelForProvider(p),
			APIKey:    key,
			MaxTokens: c.LLM.MaxTokens,
		}
	}
	return out
}
