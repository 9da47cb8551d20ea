package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ObjectStore holds listing image binaries under caller-chosen keys.
type ObjectStore interface {
	// Upload stores data under key and returns the key it was stored as.
	// Callers must use a fresh key per upload: file and S3 backends overwrite
	// an existing object, GridFS rejects the duplicate id.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get retrieves the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ValidateKey rejects keys that are empty or could escape the store namespace.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("empty object key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid object key: %q", key)
	}
	return nil
}

// FileStore is a filesystem-backed ObjectStore for local development.
type FileStore struct {
	baseDir string
	prefix  string
	mu      sync.RWMutex
}

// NewFileStore creates a store rooted at baseDir.
func NewFileStore(baseDir, prefix string) (*FileStore, error) {
	//nolint:gosec // G301: images are served publicly
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure image dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, prefix: prefix}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(s.prefix+key))
}

func (s *FileStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	//nolint:gosec // G301
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to ensure image dir: %w", err)
	}

	// Write to temp, then rename
	tmpPath := path + ".tmp"
	//nolint:gosec // G306: images are served publicly
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to commit image: %w", err)
	}

	return key, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
