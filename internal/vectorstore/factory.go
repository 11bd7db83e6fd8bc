package vectorstore

import (
	"context"
	"fmt"
	"strings"
)

// Backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPGVector = "pgvector"
	BackendQdrant   = "qdrant"
)

// Config selects and configures an index backend.
type Config struct {
	Backend    string
	SQLitePath string
	PGVector   PGVectorConfig
	Qdrant     QdrantConfig
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config) (Index, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case BackendPGVector:
		return OpenPGVector(ctx, cfg.PGVector)
	case BackendQdrant:
		return OpenQdrant(ctx, cfg.Qdrant)
	default:
		return nil, fmt.Errorf("unsupported vector store backend: %q (supported: sqlite, pgvector, qdrant)", cfg.Backend)
	}
}
