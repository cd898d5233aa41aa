package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

// LocalStore keeps blobs as flat files in a directory on the local filesystem.
// All access goes through os.Root so names cannot resolve outside the directory.
type LocalStore struct {
	root string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create storage directory: %w", apperrors.ErrStorage, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve storage directory: %w", apperrors.ErrStorage, err)
	}
	return &LocalStore{root: abs}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, int64, error) {
	if err := ValidateName(name); err != nil {
		return "", 0, fmt.Errorf("%w: %w", apperrors.ErrStorage, err)
	}

	root, err := os.OpenRoot(s.root)
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to open storage directory: %w", apperrors.ErrStorage, err)
	}
	defer root.Close()

	file, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to create file: %w", apperrors.ErrStorage, err)
	}

	size, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = root.Remove(name)
		return "", 0, fmt.Errorf("%w: failed to write data: %w", apperrors.ErrStorage, err)
	}

	return filepath.Join(s.root, name), size, nil
}

func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("image file not found: %s: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to open storage directory: %w", apperrors.ErrStorage, err)
	}
	defer root.Close()

	file, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("image file not found: %s: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to open file: %w", apperrors.ErrStorage, err)
	}

	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, fmt.Errorf("image file not found: %s: %w", name, apperrors.ErrNotFound)
	}

	return file, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	root, err := os.OpenRoot(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to open storage directory: %w", apperrors.ErrStorage, err)
	}
	defer root.Close()

	if err := root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to remove file: %w", apperrors.ErrStorage, err)
	}
	return nil
}

// Check reports whether the directory exists and accepts writes by creating
// and removing a probe file.
func (s *LocalStore) Check(_ context.Context) models.DirectoryStatus {
	status := models.DirectoryStatus{Path: s.root}

	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return status
	}
	status.Exists = true

	probe, err := os.CreateTemp(s.root, ".healthcheck-"+uuid.NewString()+"-*")
	if err != nil {
		return status
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	status.Writable = true

	return status
}
