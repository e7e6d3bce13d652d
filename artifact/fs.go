package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists artifacts under a base directory, one subdirectory per
// run. It is the durable counterpart of InMemoryStore and the store to use
// when report files should outlive the process (the CLI writes into an
// "outputs" directory by default).
//
// Artifact ids are treated as plain file names; callers supply well-known
// names like "report.md" rather than user input.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save, not here, so construction never fails.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Save writes the artifact bytes to <dir>/<runID>/<artifactID>, creating the
// run directory as needed.
func (f *FileStore) Save(runID, artifactID string, data []byte) error {
	runDir := filepath.Join(f.dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, artifactID), data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Get reads the artifact bytes or returns ErrNotFound for a missing file.
func (f *FileStore) Get(runID, artifactID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, runID, artifactID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// List returns the artifact file names stored for the run.
func (f *FileStore) List(runID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.dir, runID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// Delete removes the artifact file or returns ErrNotFound.
func (f *FileStore) Delete(runID, artifactID string) error {
	err := os.Remove(filepath.Join(f.dir, runID, artifactID))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// Path returns the absolute location of an artifact within the store. The
// renderer uses this as the artifact's location reference.
func (f *FileStore) Path(runID, artifactID string) string {
	return filepath.Join(f.dir, runID, artifactID)
}
