// Package tei provides a query embedder for Text Embeddings Inference (TEI) servers.
// TEI serves both an OpenAI-compatible /v1/embeddings endpoint and a native /embed endpoint.
// See: https://github.com/huggingface/text-embeddings-inference
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultBatchSize = 32
)

// Config holds configuration for the TEI embedder.
type Config struct {
	// BaseURL is the TEI server URL (e.g., "http://localhost:8080")
	BaseURL string

	// Model is the model name (optional, TEI typically serves a single model)
	Model string

	// APIKey is sent as a bearer token when set (TEI --api-key)
	APIKey string

	// BatchSize caps the inputs sent per request (default: 32)
	BatchSize int

	// Timeout for HTTP requests (default: 30s)
	Timeout time.Duration
}

// Embedder implements the eino embedding.Embedder interface for TEI servers.
type Embedder struct {
	baseURL   string
	model     string
	apiKey    string
	batchSize int
	client    *http.Client
}

// embeddingRequest is the request payload for /v1/embeddings
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

// embeddingResponse is the response from /v1/embeddings
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// nativeRequest is the native TEI /embed request format
type nativeRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate,omitempty"`
}

// NewEmbedder creates a new TEI embedder.
func NewEmbedder(_ context.Context, cfg *Config) (*Embedder, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("TEI base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Embedder{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		batchSize: batchSize,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// EmbedStrings implements the embedding.Embedder interface.
// Inputs are sent in batches; each batch tries the OpenAI-compatible
// endpoint first and falls back to the native endpoint.
func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		vectors, err := e.embedOpenAI(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			vectors, err = e.embedNative(ctx, batch)
			if err != nil {
				return nil, fmt.Errorf("TEI embedding failed: %w", err)
			}
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("TEI returned %d embeddings for %d inputs", len(vectors), len(batch))
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embedOpenAI(ctx context.Context, texts []string) ([][]float64, error) {
	var resp embeddingResponse
	if err := e.post(ctx, "/v1/embeddings", embeddingRequest{Input: texts, Model: e.model}, &resp); err != nil {
		return nil, err
	}

	embeddings := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}
	return embeddings, nil
}

func (e *Embedder) embedNative(ctx context.Context, texts []string) ([][]float64, error) {
	var embeddings [][]float64
	if err := e.post(ctx, "/embed", nativeRequest{Inputs: texts, Truncate: true}, &embeddings); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (e *Embedder) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("TEI %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Close releases any resources held by the embedder.
func (e *Embedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Verify interface compliance at compile time
var _ embedding.Embedder = (*Embedder)(nil)
