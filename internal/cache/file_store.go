package cache

import (
	"context"
	"os"
	"path/filepath"
)

// FileStore is the flat fallback store: one JSON file per entry under a
// cache directory. It carries no structure beyond the key so it stays
// readable even when the structured store is unavailable.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(namespace, key string) string {
	// Keys are hex fingerprints, safe as file names.
	return filepath.Join(s.dir, namespace+"-"+key+".json")
}

// Read fetches the payload for a key
func (s *FileStore) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	payload, err := os.ReadFile(s.path(namespace, key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Write stores the payload for a key
func (s *FileStore) Write(ctx context.Context, namespace, key string, payload []byte) error {
	return os.WriteFile(s.path(namespace, key), payload, 0o644)
}

// Delete removes the entry for a key
func (s *FileStore) Delete(ctx context.Context, namespace, key string) error {
	err := os.Remove(s.path(namespace, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
