package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes objects below a base directory served at a public prefix.
type FileStore struct {
	basePath string
	baseURL  string
}

func NewFileStore(basePath, publicBaseURL string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// BasePath is the directory served under the public prefix.
func (s *FileStore) BasePath() string {
	return s.basePath
}

func (s *FileStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	cleanKey, err := SanitizeKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	size, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if size == 0 {
		_ = os.Remove(target)
		return "", errors.New("storage: empty file")
	}
	return s.baseURL + "/" + cleanKey, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	cleanKey, err := SanitizeKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.basePath, filepath.FromSlash(cleanKey)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}
