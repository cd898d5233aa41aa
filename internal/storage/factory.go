package storage

import (
	"context"
	"fmt"

	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/config"
)

const thumbnailPrefix = "thumbnails"

// NewStores builds the image and thumbnail stores for the configured backend.
// Bucket backends keep thumbnails in the same bucket under a prefix.
func NewStores(ctx context.Context, cfg *config.Config) (BlobStore, BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendLocal, "":
		images, err := NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		thumbnails, err := NewLocalStore(cfg.ThumbnailDir)
		if err != nil {
			return nil, nil, err
		}
		return images, thumbnails, nil

	case config.BlobBackendSupabase:
		sb := cfg.Supabase
		return NewSupabaseStore(sb.URL, sb.ServiceKey, sb.Bucket, ""),
			NewSupabaseStore(sb.URL, sb.ServiceKey, sb.Bucket, thumbnailPrefix),
			nil

	case config.BlobBackendS3:
		s3 := cfg.S3
		images, err := NewMinioStore(ctx, s3.Endpoint, s3.AccessKey, s3.SecretKey, s3.Bucket, "", s3.UseSSL)
		if err != nil {
			return nil, nil, err
		}
		thumbnails, err := NewMinioStore(ctx, s3.Endpoint, s3.AccessKey, s3.SecretKey, s3.Bucket, thumbnailPrefix, s3.UseSSL)
		if err != nil {
			return nil, nil, err
		}
		return images, thumbnails, nil

	default:
		return nil, nil, fmt.Errorf("%w: unsupported BLOB_BACKEND %q", apperrors.ErrConfiguration, cfg.BlobBackend)
	}
}
