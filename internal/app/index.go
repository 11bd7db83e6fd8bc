package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/spf13/afero"

	"github.com/josephgoksu/DocWing/internal/knowledge"
	"github.com/josephgoksu/DocWing/internal/pagecache"
	"github.com/josephgoksu/DocWing/internal/vectorstore"
)

// DefaultIndexBatchSize is the number of chunks embedded per request.
const DefaultIndexBatchSize = 64

// pageLister is implemented by indexes that can rebuild the page catalog.
type pageLister interface {
	Pages(ctx context.Context) ([]knowledge.PageEntry, error)
}

// IndexApp loads chunk files into the vector index for local development.
type IndexApp struct {
	Embedder  embedding.Embedder
	Index     vectorstore.Index
	Fs        afero.Fs
	CachePath string
	BatchSize int
	// Progress is called after each upserted batch.
	Progress func(done, total int)
}

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Chunks int `json:"chunks"`
	Pages  int `json:"pages"`
}

// LoadChunks reads one JSON chunk per line. Blank lines are skipped and
// chunks without id or content are rejected with their line number.
func LoadChunks(r io.Reader) ([]knowledge.Chunk, error) {
	var chunks []knowledge.Chunk
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var c knowledge.Chunk
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("line %d: chunk id is required", line)
		}
		if strings.TrimSpace(c.Content) == "" {
			return nil, fmt.Errorf("line %d: chunk %s has no content", line, c.ID)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	return chunks, nil
}

// Run embeds and upserts chunks in batches, then rewrites the page cache.
func (a *IndexApp) Run(ctx context.Context, chunks []knowledge.Chunk) (*IndexResult, error) {
	batch := a.BatchSize
	if batch <= 0 {
		batch = DefaultIndexBatchSize
	}

	for start := 0; start < len(chunks); start += batch {
		end := min(start+batch, len(chunks))
		part := chunks[start:end]

		texts := make([]string, len(part))
		for i, c := range part {
			texts[i] = embeddingText(c)
		}
		vectors, err := vectorstore.EmbedTexts(ctx, a.Embedder, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}

		records := make([]vectorstore.Record, len(part))
		for i, c := range part {
			records[i] = vectorstore.Record{Chunk: c, Embedding: vectors[i]}
		}
		if err := a.Index.Upsert(ctx, records); err != nil {
			return nil, fmt.Errorf("upsert chunks %d-%d: %w", start, end, err)
		}
		if a.Progress != nil {
			a.Progress(end, len(chunks))
		}
	}

	pages, err := a.pages(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if err := pagecache.Write(a.Fs, a.CachePath, pages); err != nil {
		return nil, fmt.Errorf("write page cache: %w", err)
	}

	slog.Info("index complete", "chunks", len(chunks), "pages", len(pages), "cache", a.CachePath)
	return &IndexResult{Chunks: len(chunks), Pages: len(pages)}, nil
}

// pages prefers the full catalog from the index so earlier runs are kept.
func (a *IndexApp) pages(ctx context.Context, chunks []knowledge.Chunk) ([]knowledge.PageEntry, error) {
	if lister, ok := a.Index.(pageLister); ok {
		pages, err := lister.Pages(ctx)
		if err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}
		return pages, nil
	}
	return PagesFromChunks(chunks), nil
}

// PagesFromChunks groups chunks by page in first-seen order.
func PagesFromChunks(chunks []knowledge.Chunk) []knowledge.PageEntry {
	byID := make(map[string]int)
	var pages []knowledge.PageEntry
	for _, c := range chunks {
		if c.PageID == "" {
			continue
		}
		i, ok := byID[c.PageID]
		if !ok {
			i = len(pages)
			byID[c.PageID] = i
			pages = append(pages, knowledge.PageEntry{
				PageID:    c.PageID,
				PageTitle: c.Title,
				SpaceKey:  c.SpaceKey,
			})
		}
		pages[i].ChunkIDs = append(pages[i].ChunkIDs, c.ID)
		pages[i].ChunkCount++
	}
	return pages
}

// embeddingText is what the indexer embeds for a chunk. Queries are plain
// questions, so the title and heading give the vector some page context.
func embeddingText(c knowledge.Chunk) string {
	heading := c.HeadingPath
	if heading == "" {
		heading = c.Heading
	}
	if heading != "" {
		return c.Title + " > " + heading + "\n\n" + c.Content
	}
	return c.Title + "\n\n" + c.Content
}
