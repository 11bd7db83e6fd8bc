package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// PGVectorConfig configures a Postgres/pgvector index.
type PGVectorConfig struct {
	DSN        string
	Table      string
	Dimensions int
}

// PGVectorIndex stores chunks in Postgres and ranks them with the pgvector
// cosine distance operator.
type PGVectorIndex struct {
	db         *sqlx.DB
	table      string
	dimensions int
}

// OpenPGVector connects to Postgres and ensures the extension and table exist.
func OpenPGVector(ctx context.Context, cfg PGVectorConfig) (*PGVectorIndex, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("pgvector dimensions must be positive, got %d", cfg.Dimensions)
	}
	table := cfg.Table
	if table == "" {
		table = "docwing_chunks"
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	idx := &PGVectorIndex{db: db, table: pq.QuoteIdentifier(table), dimensions: cfg.Dimensions}
	for _, stmt := range idx.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init pgvector schema: %w", err)
		}
	}
	return idx, nil
}

func (p *PGVectorIndex) schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id           TEXT PRIMARY KEY,
			page_id      TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			heading      TEXT NOT NULL DEFAULT '',
			heading_path TEXT NOT NULL DEFAULT '',
			space_key    TEXT NOT NULL DEFAULT '',
			source_url   TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL DEFAULT '',
			embedding    vector(%d) NOT NULL
		)`, p.table, p.dimensions),
	}
}

// Upsert inserts or replaces records in one transaction.
func (p *PGVectorIndex) Upsert(ctx context.Context, records []Record) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, page_id, title, heading, heading_path, space_key, source_url, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			page_id = EXCLUDED.page_id,
			title = EXCLUDED.title,
			heading = EXCLUDED.heading,
			heading_path = EXCLUDED.heading_path,
			space_key = EXCLUDED.space_key,
			source_url = EXCLUDED.source_url,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`, p.table)

	for _, r := range records {
		if len(r.Embedding) != p.dimensions {
			return fmt.Errorf("%w: chunk %s has %d, index has %d", ErrDimensionMismatch, r.Chunk.ID, len(r.Embedding), p.dimensions)
		}
		c := r.Chunk
		if _, err := tx.ExecContext(ctx, query,
			c.ID, c.PageID, c.Title, c.Heading, c.HeadingPath, c.SpaceKey, c.SourceURL, c.Content,
			pgvector.NewVector(r.Embedding),
		); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks. Score is 1 - cosine distance.
func (p *PGVectorIndex) Query(ctx context.Context, vector []float32, k int) ([]knowledge.SearchResult, error) {
	if len(vector) != p.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(vector), p.dimensions)
	}

	rows, err := p.db.QueryxContext(ctx, fmt.Sprintf(`
		SELECT id, page_id, title, heading, heading_path, space_key, source_url, content,
			1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, p.table),
		pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []knowledge.SearchResult
	for rows.Next() {
		var row struct {
			chunkRow
			Score float64 `db:"score"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, knowledge.SearchResult{Chunk: row.chunk(), Score: row.Score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}

// Close closes the connection pool.
func (p *PGVectorIndex) Close() error {
	return p.db.Close()
}

var _ Index = (*PGVectorIndex)(nil)
