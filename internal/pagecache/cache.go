// Package pagecache serves the per-page embedding metadata written by the
// indexer. A missing or unreadable cache file is treated as an empty catalog.
package pagecache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// DefaultFileName is the cache file name inside the data directory.
const DefaultFileName = "vector-cache.json"

// Cache is a read-only, reloadable page catalog.
// It uses an afero.Fs so tests can run against an in-memory filesystem.
type Cache struct {
	fs   afero.Fs
	path string

	mu    sync.RWMutex
	pages []knowledge.PageEntry
	byID  map[string]int
}

// New creates a cache for path and loads it.
func New(fs afero.Fs, path string) *Cache {
	c := &Cache{fs: fs, path: path, byID: map[string]int{}}
	c.Reload()
	return c
}

// NewOs creates a cache on the real filesystem.
func NewOs(path string) *Cache {
	return New(afero.NewOsFs(), path)
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Reload re-reads the cache file and returns the page count.
// Read or parse failures leave the catalog empty.
func (c *Cache) Reload() int {
	pages, err := c.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("page cache not found, catalog is empty", "path", c.path)
		} else {
			slog.Warn("page cache unreadable, catalog is empty", "path", c.path, "error", err)
		}
		pages = nil
	}

	byID := make(map[string]int, len(pages))
	for i, p := range pages {
		byID[p.PageID] = i
	}

	c.mu.Lock()
	c.pages = pages
	c.byID = byID
	c.mu.Unlock()

	slog.Debug("page cache loaded", "path", c.path, "pages", len(pages))
	return len(pages)
}

// Page looks up one page by id.
func (c *Cache) Page(pageID string) (knowledge.PageEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[pageID]
	if !ok {
		return knowledge.PageEntry{}, false
	}
	return c.pages[i], true
}

// Pages returns all pages in file order.
func (c *Cache) Pages() []knowledge.PageEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]knowledge.PageEntry, len(c.pages))
	copy(out, c.pages)
	return out
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

var _ knowledge.PageCatalog = (*Cache)(nil)

func (c *Cache) read() ([]knowledge.PageEntry, error) {
	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes cache file content. Two layouts are accepted: an object
// keyed by page id (key order is kept) or an array of entries.
// Entries without a page id are skipped and duplicate ids keep the first.
func Parse(data []byte) ([]knowledge.PageEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw []knowledge.PageEntry
	var err error
	switch data[0] {
	case '{':
		raw, err = parseObject(data)
	case '[':
		err = json.Unmarshal(data, &raw)
	default:
		err = fmt.Errorf("unexpected cache layout starting with %q", data[0])
	}
	if err != nil {
		return nil, fmt.Errorf("parse page cache: %w", err)
	}

	pages := make([]knowledge.PageEntry, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		p.PageID = strings.TrimSpace(p.PageID)
		if p.PageID == "" || seen[p.PageID] {
			continue
		}
		seen[p.PageID] = true
		if p.ChunkCount == 0 {
			p.ChunkCount = len(p.ChunkIDs)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// parseObject streams an object keyed by page id, keeping key order.
func parseObject(data []byte) ([]knowledge.PageEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var pages []knowledge.PageEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var entry knowledge.PageEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		if entry.PageID == "" {
			entry.PageID = key
		}
		pages = append(pages, entry)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return pages, nil
}
