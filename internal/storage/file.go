package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps images on the local filesystem under Root and serves them
// from BaseURL (mounted by the router as a static directory).
type FileStore struct {
	Root    string
	BaseURL string
}

// NewFileStore creates root if needed.
func NewFileStore(root, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes data to Root/key.
func (s *FileStore) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	full, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + filepath.ToSlash(key), nil
}

// Delete removes the file behind url. URLs outside BaseURL are ignored.
func (s *FileStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || key == "" {
		return nil
	}
	full, err := s.path(key)
	if err != nil {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// path resolves key under Root and rejects traversal.
func (s *FileStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidImage
	}
	return filepath.Join(s.Root, clean), nil
}
