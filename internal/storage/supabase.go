package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	storagego "github.com/supabase-community/storage-go"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

// SupabaseStore keeps blobs in a Supabase Storage bucket under an optional prefix.
type SupabaseStore struct {
	client *storagego.Client
	bucket string
	prefix string
}

func NewSupabaseStore(supabaseURL, serviceKey, bucket, prefix string) *SupabaseStore {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storagego.NewClient(baseURL+"/storage/v1", serviceKey, nil)

	return &SupabaseStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *SupabaseStore) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) (string, int64, error) {
	if err := ValidateName(name); err != nil {
		return "", 0, fmt.Errorf("%w: %w", apperrors.ErrStorage, err)
	}

	key := objectKey(s.prefix, name)
	upsert := false
	counter := &countingReader{r: r}
	_, err := s.client.UploadFile(s.bucket, key, counter, storagego.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to upload file: %w", apperrors.ErrStorage, err)
	}

	return key, counter.n, nil
}

func (s *SupabaseStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := s.client.DownloadFile(s.bucket, objectKey(s.prefix, name))
	if err != nil {
		if isNotFoundMessage(err) {
			return nil, fmt.Errorf("image file not found: %s: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to download file: %w", apperrors.ErrStorage, err)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SupabaseStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if _, err := s.client.RemoveFile(s.bucket, []string{objectKey(s.prefix, name)}); err != nil && !isNotFoundMessage(err) {
		return fmt.Errorf("%w: failed to delete file: %w", apperrors.ErrStorage, err)
	}
	return nil
}

func (s *SupabaseStore) Check(_ context.Context) models.DirectoryStatus {
	status := models.DirectoryStatus{Path: fmt.Sprintf("supabase://%s/%s", s.bucket, s.prefix)}

	if _, err := s.client.ListFiles(s.bucket, s.prefix, storagego.FileSearchOptions{Limit: 1}); err != nil {
		return status
	}
	status.Exists = true

	marker := objectKey(s.prefix, ".healthcheck")
	contentType := "text/plain"
	upsert := true
	if _, err := s.client.UploadFile(s.bucket, marker, bytes.NewReader(nil), storagego.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return status
	}
	_, _ = s.client.RemoveFile(s.bucket, []string{marker})
	status.Writable = true

	return status
}

func isNotFoundMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}
