package fetch

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore saves raw response bodies of permanently failed fetches
// for offline diagnosis. Files are named debug_<unit-id>.html so a failed
// unit in the summary can be matched to its artifact directly.
type ArtifactStore struct {
	// dir is the directory artifacts are written into.
	dir string
}

// NewArtifactStore creates a store writing into dir. The directory is
// created on first save, not here, so a fully successful run leaves no
// empty debug directory behind.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Save writes body as the debug artifact for the given crawl unit and
// returns the file path. An empty body still produces a placeholder file:
// the artifact's existence is the record that the fetch failed.
func (a *ArtifactStore) Save(unitID string, body []byte) (string, error) {
	if err := os.MkdirAll(a.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	path := filepath.Join(a.dir, "debug_"+unitID+".html")
	if err := os.WriteFile(path, body, 0600); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}
