package pagecache

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/josephgoksu/DocWing/internal/knowledge"
)

// Write stores pages as a JSON array at path. The file is written to a
// temporary sibling and renamed so readers never see a partial file.
func Write(fs afero.Fs, path string, pages []knowledge.PageEntry) error {
	if pages == nil {
		pages = []knowledge.PageEntry{}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal page cache: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write page cache: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("replace page cache: %w", err)
	}
	return nil
}
