package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

// partSize bounds the buffer minio allocates when the object size is unknown.
const partSize = 16 << 20

// MinioStore keeps blobs in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinioStore connects to the endpoint and creates the bucket when it does not exist.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket, prefix string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create s3 client: %w", apperrors.ErrStorage, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check bucket %s: %w", apperrors.ErrStorage, bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: failed to create bucket %s: %w", apperrors.ErrStorage, bucket, err)
		}
	}

	return &MinioStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *MinioStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, int64, error) {
	if err := ValidateName(name); err != nil {
		return "", 0, fmt.Errorf("%w: %w", apperrors.ErrStorage, err)
	}

	key := objectKey(s.prefix, name)
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    partSize,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: failed to upload object: %w", apperrors.ErrStorage, err)
	}

	return key, info.Size, nil
}

func (s *MinioStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(s.prefix, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get object: %w", apperrors.ErrStorage, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("image file not found: %s: %w", name, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to stat object: %w", apperrors.ErrStorage, err)
	}

	return obj, nil
}

func (s *MinioStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(s.prefix, name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: failed to remove object: %w", apperrors.ErrStorage, err)
	}
	return nil
}

func (s *MinioStore) Check(ctx context.Context) models.DirectoryStatus {
	status := models.DirectoryStatus{Path: fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil || !exists {
		return status
	}
	status.Exists = true

	probe := objectKey(s.prefix, ".healthcheck")
	if _, err := s.client.PutObject(ctx, s.bucket, probe, bytes.NewReader(nil), 0, minio.PutObjectOptions{}); err != nil {
		return status
	}
	_ = s.client.RemoveObject(ctx, s.bucket, probe, minio.RemoveObjectOptions{})
	status.Writable = true

	return status
}
