package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes objects below a directory served as static files.
type LocalStore struct {
	baseDir    string
	staticBase string
}

func NewLocalStore(baseDir, staticBase string) *LocalStore {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if staticBase == "" {
		staticBase = "/static"
	}
	return &LocalStore{baseDir: baseDir, staticBase: strings.TrimSuffix(staticBase, "/")}
}

func (s *LocalStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	key = strings.TrimPrefix(filepath.ToSlash(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}

	absPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		_ = os.Remove(absPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.staticBase + "/" + key, nil
}

func (s *LocalStore) Dir() string { return s.baseDir }
