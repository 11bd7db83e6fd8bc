package vectorstore

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS chunks (
	id           TEXT PRIMARY KEY,
	page_id      TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	heading      TEXT NOT NULL DEFAULT '',
	heading_path TEXT NOT NULL DEFAULT '',
	space_key    TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	embedding    BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_page_id ON chunks(page_id)`,
}

// chunkRow is the chunks table row.
type chunkRow struct {
	ID          string `db:"id"`
	PageID      string `db:"page_id"`
	Title       string `db:"title"`
	Heading     string `db:"heading"`
	HeadingPath string `db:"heading_path"`
	SpaceKey    string `db:"space_key"`
	SourceURL   string `db:"source_url"`
	Content     string `db:"content"`
	Embedding   []byte `db:"embedding"`
}

func (r chunkRow) chunk() knowledge.Chunk {
	return knowledge.Chunk{
		ID:          r.ID,
		PageID:      r.PageID,
		Title:       r.Title,
		Heading:     r.Heading,
		HeadingPath: r.HeadingPath,
		SpaceKey:    r.SpaceKey,
		SourceURL:   r.SourceURL,
		Content:     r.Content,
	}
}

// SQLiteIndex is a local chunk index that scores every stored embedding
// against the query. It suits corpora of up to a few hundred thousand chunks.
type SQLiteIndex struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the index at path. Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &SQLiteIndex{db: db}, nil
}

// Upsert inserts or replaces records in one transaction.
func (s *SQLiteIndex) Upsert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO chunks (id, page_id, title, heading, heading_path, space_key, source_url, content, embedding)
		VALUES (:id, :page_id, :title, :heading, :heading_path, :space_key, :source_url, :content, :embedding)
		ON CONFLICT(id) DO UPDATE SET
			page_id = excluded.page_id,
			title = excluded.title,
			heading = excluded.heading,
			heading_path = excluded.heading_path,
			space_key = excluded.space_key,
			source_url = excluded.source_url,
			content = excluded.content,
			embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		c := r.Chunk
		row := chunkRow{
			ID:          c.ID,
			PageID:      c.PageID,
			Title:       c.Title,
			Heading:     c.Heading,
			HeadingPath: c.HeadingPath,
			SpaceKey:    c.SpaceKey,
			SourceURL:   c.SourceURL,
			Content:     c.Content,
			Embedding:   encodeVector(r.Embedding),
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query scores all chunks by cosine similarity and returns the top k.
func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, k int) ([]knowledge.SearchResult, error) {
	var rows []chunkRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM chunks`); err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}

	results := make([]knowledge.SearchResult, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		emb := decodeVector(row.Embedding)
		if len(emb) != len(vector) {
			skipped++
			continue
		}
		results = append(results, knowledge.SearchResult{
			Chunk: row.chunk(),
			Score: CosineSimilarity(vector, emb),
		})
	}
	if skipped > 0 {
		slog.Warn("skipped chunks with mismatched embedding dimension",
			"skipped", skipped, "query_dim", len(vector))
	}

	slices.SortStableFunc(results, func(a, b knowledge.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Pages groups stored chunks into page catalog entries in first-indexed order.
func (s *SQLiteIndex) Pages(ctx context.Context) ([]knowledge.PageEntry, error) {
	var rows []struct {
		ID       string `db:"id"`
		PageID   string `db:"page_id"`
		Title    string `db:"title"`
		SpaceKey string `db:"space_key"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, page_id, title, space_key FROM chunks WHERE page_id != '' ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select pages: %w", err)
	}

	var pages []knowledge.PageEntry
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.PageID]
		if !ok {
			i = len(pages)
			index[r.PageID] = i
			pages = append(pages, knowledge.PageEntry{
				PageID:    r.PageID,
				PageTitle: r.Title,
				SpaceKey:  r.SpaceKey,
			})
		}
		pages[i].ChunkCount++
		pages[i].ChunkIDs = append(pages[i].ChunkIDs, r.ID)
	}
	return pages, nil
}

// Count returns the number of stored chunks.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM chunks`); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

var _ Index = (*SQLiteIndex)(nil)

// encodeVector stores a vector as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
