package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage is the blob store holding receipt images. Paths are opaque keys of
// the form {userID}/{filename}.
type Storage interface {
	// Save writes a blob and returns the path it can be fetched under.
	Save(path string, data []byte) (string, error)

	// Get retrieves a blob by path.
	Get(path string) ([]byte, error)

	// Delete removes a blob.
	Delete(path string) error
}

// LocalStorage implements Storage on the local filesystem.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

func (l *LocalStorage) Save(path string, data []byte) (string, error) {
	full, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("creating blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	return path, nil
}

func (l *LocalStorage) Get(path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

func (l *LocalStorage) Delete(path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// resolve joins path under basePath and refuses traversal outside it.
func (l *LocalStorage) resolve(path string) (string, error) {
	full := filepath.Join(l.basePath, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, filepath.Clean(l.basePath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return full, nil
}
