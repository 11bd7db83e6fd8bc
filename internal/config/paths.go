package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/josephgoksu/DocWing/internal/pagecache"
	"github.com/josephgoksu/DocWing/internal/trace"
	"github.com/josephgoksu/DocWing/internal/vectorstore"
)

// Server and trace defaults.
const (
	DefaultPort        = 8787
	DefaultTraceBuffer = trace.DefaultBuffer
	DefaultIndexFile   = "index.db"
)

// DefaultAllowedOrigins permits the local UI dev servers.
var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// GetGlobalConfigDir returns the path to the global configuration directory (~/.docwing).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docwing"), nil
}

// GetDataDir returns the directory for the local index, cache and crash logs.
// Resolution order (first match wins):
// 1. Explicit config via "data.dir"
// 2. Local project directory: .docwing (if exists)
// 3. XDG_DATA_HOME/docwing (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.docwing
func GetDataDir() string {
	if path := viper.GetString("data.dir"); path != "" {
		return path
	}

	if info, err := os.Stat(".docwing"); err == nil && info.IsDir() {
		return ".docwing"
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "docwing")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return ".docwing"
	}
	return dir
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:    getStringWithDefault("store.backend", vectorstore.BackendSQLite),
		SQLitePath: getStringWithDefault("store.sqlite.path", filepath.Join(GetDataDir(), DefaultIndexFile)),
		PGVector: PGVectorConfig{
			DSN:        getStringWithDefault("store.pgvector.dsn", os.Getenv("DATABASE_URL")),
			Table:      getStringWithDefault("store.pgvector.table", ""),
			Dimensions: getIntWithDefault("store.pgvector.dimensions", 0),
		},
		Qdrant: QdrantConfig{
			URL:        getStringWithDefault("store.qdrant.url", ""),
			APIKey:     getStringWithDefault("store.qdrant.api_key", os.Getenv("QDRANT_API_KEY")),
			Collection: getStringWithDefault("store.qdrant.collection", ""),
			Dimensions: getIntWithDefault("store.qdrant.dimensions", 0),
		},
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Path:  getStringWithDefault("cache.path", filepath.Join(GetDataDir(), pagecache.DefaultFileName)),
		Watch: getBoolWithDefault("cache.watch", true),
	}
}
