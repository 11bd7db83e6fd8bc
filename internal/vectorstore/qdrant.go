package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// QdrantConfig configures a Qdrant collection.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// QdrantIndex is a minimal REST client for one Qdrant collection using
// cosine distance.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// qdrantPayload is the chunk as stored in a point payload.
type qdrantPayload struct {
	ChunkID     string `json:"chunk_id"`
	PageID      string `json:"page_id,omitempty"`
	Title       string `json:"title"`
	Heading     string `json:"heading,omitempty"`
	HeadingPath string `json:"heading_path,omitempty"`
	SpaceKey    string `json:"space_key,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	Content     string `json:"content"`
}

type qdrantPoint struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload qdrantPayload `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float64       `json:"score"`
		Payload qdrantPayload `json:"payload"`
	} `json:"result"`
}

// OpenQdrant creates the client and ensures the collection exists.
func OpenQdrant(ctx context.Context, cfg QdrantConfig) (*QdrantIndex, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant dimensions must be positive, got %d", cfg.Dimensions)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "docwing_chunks"
	}

	q := &QdrantIndex{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}
	if err := q.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *QdrantIndex) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", q.url, q.collection, suffix)
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	status, err := q.do(ctx, http.MethodGet, q.collectionURL(""), nil, nil)
	if err == nil {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("check qdrant collection: %w", err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimensions,
			"distance": "Cosine",
		},
	}
	if _, err := q.do(ctx, http.MethodPut, q.collectionURL(""), body, nil); err != nil {
		return fmt.Errorf("create qdrant collection: %w", err)
	}
	return nil
}

// pointID maps a chunk id to a stable UUID, since Qdrant only accepts
// UUIDs or integers as point ids.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("docwing:"+chunkID)).String()
}

// Upsert writes records as points and waits for them to be indexed.
func (q *QdrantIndex) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]qdrantPoint, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) != q.dimensions {
			return fmt.Errorf("%w: chunk %s has %d, collection has %d", ErrDimensionMismatch, r.Chunk.ID, len(r.Embedding), q.dimensions)
		}
		c := r.Chunk
		points = append(points, qdrantPoint{
			ID:     pointID(c.ID),
			Vector: r.Embedding,
			Payload: qdrantPayload{
				ChunkID:     c.ID,
				PageID:      c.PageID,
				Title:       c.Title,
				Heading:     c.Heading,
				HeadingPath: c.HeadingPath,
				SpaceKey:    c.SpaceKey,
				SourceURL:   c.SourceURL,
				Content:     c.Content,
			},
		})
	}
	_, err := q.do(ctx, http.MethodPut, q.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	if err != nil {
		return fmt.Errorf("upsert qdrant points: %w", err)
	}
	return nil
}

// Query searches the collection. Qdrant returns hits in descending score order.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, k int) ([]knowledge.SearchResult, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp qdrantSearchResponse
	if _, err := q.do(ctx, http.MethodPost, q.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]knowledge.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := r.Payload
		results = append(results, knowledge.SearchResult{
			Chunk: knowledge.Chunk{
				ID:          p.ChunkID,
				PageID:      p.PageID,
				Title:       p.Title,
				Heading:     p.Heading,
				HeadingPath: p.HeadingPath,
				SpaceKey:    p.SpaceKey,
				SourceURL:   p.SourceURL,
				Content:     p.Content,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

// Close releases idle connections.
func (q *QdrantIndex) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
// The HTTP status is returned alongside any error.
func (q *QdrantIndex) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

var _ Index = (*QdrantIndex)(nil)
