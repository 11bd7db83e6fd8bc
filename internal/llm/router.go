package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// CompletionOptions are the per-call completion settings.
type CompletionOptions struct {
	Temperature float32
	// Provider selects a named provider variant; empty means the router default.
	Provider Provider
}

// ChatModelFactory builds a chat model for one provider configuration.
type ChatModelFactory func(ctx context.Context, cfg Config) (model.BaseChatModel, error)

// Router dispatches completions to one of several configured providers,
// creating each provider's chat model lazily and reusing it afterwards.
type Router struct {
	defaultProvider Provider
	configs         map[Provider]Config
	factory         ChatModelFactory

	mu     sync.Mutex
	models map[Provider]model.BaseChatModel
}

// NewRouter creates a router. configs holds one entry per usable provider.
// A nil factory uses NewChatModel.
func NewRouter(defaultProvider Provider, configs map[Provider]Config, factory ChatModelFactory) *Router {
	if factory == nil {
		factory = NewChatModel
	}
	if defaultProvider == "" {
		defaultProvider = DefaultProvider
	}
	return &Router{
		defaultProvider: defaultProvider,
		configs:         configs,
		factory:         factory,
		models:          make(map[Provider]model.BaseChatModel),
	}
}

// DefaultProvider returns the configured default provider.
func (r *Router) DefaultProvider() Provider {
	return r.defaultProvider
}

// ResolveProvider picks the provider for one call: explicit override, then the
// configured default, then the process default.
func ResolveProvider(override, configured Provider) (Provider, error) {
	if strings.TrimSpace(string(override)) != "" {
		return ValidateProvider(string(override))
	}
	if configured != "" {
		return ValidateProvider(string(configured))
	}
	return DefaultProvider, nil
}

// Complete runs a blocking completion.
func (r *Router) Complete(ctx context.Context, messages []*schema.Message, opts CompletionOptions) (string, error) {
	cm, err := r.chatModel(ctx, opts.Provider)
	if err != nil {
		return "", err
	}
	resp, err := cm.Generate(ctx, messages, model.WithTemperature(opts.Temperature))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}

// CompleteStream starts a streaming completion. The caller must Close the reader.
func (r *Router) CompleteStream(ctx context.Context, messages []*schema.Message, opts CompletionOptions) (*schema.StreamReader[*schema.Message], error) {
	cm, err := r.chatModel(ctx, opts.Provider)
	if err != nil {
		return nil, err
	}
	stream, err := cm.Stream(ctx, messages, model.WithTemperature(opts.Temperature))
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	return stream, nil
}

func (r *Router) chatModel(ctx context.Context, override Provider) (model.BaseChatModel, error) {
	provider, err := ResolveProvider(override, r.defaultProvider)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cm, ok := r.models[provider]; ok {
		return cm, nil
	}

	cfg, ok := r.configs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not configured", ErrUnsupportedProvider, provider)
	}
	cfg.Provider = provider

	cm, err := r.factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", provider, err)
	}
	r.models[provider] = cm
	return cm, nil
}
