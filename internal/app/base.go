// Package app provides the application layer that wires configuration into
// the answer engine, graph builder and their collaborators. CLI, HTTP and MCP
// entry points stay thin adapters over a Context.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/spf13/afero"

	"github.com/josephgoksu/DocWing/internal/config"
	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/llm"
	"github.com/josephgoksu/DocWing/internal/pagecache"
	"github.com/josephgoksu/DocWing/internal/telemetry"
	"github.com/josephgoksu/DocWing/internal/trace"
	"github.com/josephgoksu/DocWing/internal/vectorstore"
	"github.com/josephgoksu/DocWing/prompts"
)

// Context holds shared dependencies for all app services.
type Context struct {
	Config    *config.Config
	Engine    *knowledge.Engine
	Graphs    *knowledge.GraphBuilder
	Catalog   *pagecache.Cache
	Index     vectorstore.Index
	Embedder  embedding.Embedder
	Telemetry telemetry.Client

	sink *trace.Sink
}

// Options are process-level settings that do not come from config files.
type Options struct {
	Version string
	// Fs backs the page cache and telemetry id. Defaults to the OS filesystem.
	Fs afero.Fs
}

// New builds a Context from cfg. Callers must Close it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Context, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	set, err := prompts.Load(cfg.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	embedder, err := llm.NewEmbeddingModel(ctx, cfg.LLM.Embedding())
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	index, err := vectorstore.Open(ctx, cfg.VectorStore())
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	searcher := vectorstore.NewClient(embedder, index)

	catalog := pagecache.New(opts.Fs, cfg.Cache.Path)

	a := &Context{
		Config:    cfg,
		Catalog:   catalog,
		Index:     index,
		Embedder:  embedder,
		Graphs:    knowledge.NewGraphBuilder(catalog, searcher),
		Telemetry: newTelemetry(cfg, opts),
	}

	engineCfg := knowledge.EngineConfig{
		Policy:          knowledge.NewRetrievalPolicy(searcher, cfg.RetrievalOptions()),
		Model:           llm.NewRouter(cfg.LLM.Provider, cfg.ChatConfigs(), llm.NewChatModel),
		DefaultProvider: cfg.LLM.Provider,
		Prompts:         set,
	}
	if cfg.Trace.Enabled {
		a.sink = trace.NewSink(slog.Default(), cfg.Trace.Buffer)
		engineCfg.Tracer = a.sink
		engineCfg.TraceRetrieval = cfg.Trace.Retrieval
	}
	a.Engine = knowledge.NewEngine(engineCfg)

	slog.Debug("app context ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"embedding_provider", cfg.LLM.EmbeddingProvider,
		"store", cfg.Store.Backend,
		"pages", catalog.Len())
	return a, nil
}

func newTelemetry(cfg *config.Config, opts Options) telemetry.Client {
	if !cfg.Telemetry.Enabled {
		return telemetry.NewNoopClient()
	}
	id, err := telemetry.LoadOrCreateID(opts.Fs, config.GetDataDir())
	if err != nil {
		slog.Debug("telemetry id unavailable", "error", err)
		return telemetry.NewNoopClient()
	}
	client, err := telemetry.New(telemetry.ClientConfig{
		Enabled:     true,
		APIKey:      cfg.Telemetry.APIKey,
		Endpoint:    cfg.Telemetry.Endpoint,
		AnonymousID: id,
		Version:     opts.Version,
	})
	if err != nil {
		slog.Debug("telemetry disabled", "error", err)
		return telemetry.NewNoopClient()
	}
	return client
}

// Close flushes telemetry and traces and closes the index.
func (a *Context) Close() error {
	var errs []error
	if a.Telemetry != nil {
		errs = append(errs, a.Telemetry.Close())
	}
	if a.sink != nil {
		a.sink.Close()
		if dropped := a.sink.Dropped(); dropped > 0 {
			slog.Warn("trace records dropped", "count", dropped)
		}
	}
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	return errors.Join(errs...)
}
