package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

// BlobStore holds the uploaded image bytes, one object per storage filename.
type BlobStore interface {
	// Put writes a new object and returns its backend location and size.
	// size is -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes an object. A missing object is not an error.
	Delete(ctx context.Context, name string) error
	Check(ctx context.Context) models.DirectoryStatus
}

// ValidateName accepts only plain file names that stay inside the store root.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, "/\\\x00") ||
		filepath.IsAbs(name) || filepath.VolumeName(name) != "" ||
		filepath.Base(name) != name {
		return fmt.Errorf("invalid blob name %q: %w", name, apperrors.ErrNotFound)
	}
	return nil
}

func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
