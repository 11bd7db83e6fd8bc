package telemetry

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// IDFileName stores the anonymous installation id in the data directory.
const IDFileName = "telemetry_id"

// LoadOrCreateID returns the anonymous id stored in dir, generating and
// saving a random UUID on first use.
func LoadOrCreateID(fs afero.Fs, dir string) (string, error) {
	path := filepath.Join(dir, IDFileName)
	data, err := afero.ReadFile(fs, path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); uuid.Validate(id) == nil {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create telemetry directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write telemetry id: %w", err)
	}
	return id, nil
}
