// Package storage holds the object stores media uploads are written to.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ObjectStore persists uploaded files under a key and reports their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

var ErrInvalidKey = errors.New("storage: invalid key")

// ErrObjectNotFound is returned when a delete finds nothing to remove.
var ErrObjectNotFound = errors.New("storage: object not found")

// SanitizeKey normalizes a key and prevents escaping the storage root.
func SanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
