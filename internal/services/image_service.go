package services

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/database"
	"photo-picker-backend/internal/models"
	"photo-picker-backend/internal/storage"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000

	defaultExtension = ".jpg"
	sniffLen         = 3072
	healthTimeout    = 2 * time.Second
)

// BlobInfo describes a blob returned by FetchBlob.
type BlobInfo struct {
	Filename string
	MimeType string
}

// ImageService owns the lifecycle of an image: the blob in the store and its
// metadata row. The blob is always written before the row and removed after it.
type ImageService struct {
	repo       database.Repository
	blobs      storage.BlobStore
	thumbnails storage.BlobStore
	logger     logrus.FieldLogger

	baseURL     string
	environment string
	strictMime  bool

	now func() time.Time
}

// NewImageService wires the service. thumbnails may be nil when the deployment
// keeps no thumbnail store.
func NewImageService(
	repo database.Repository,
	blobs storage.BlobStore,
	thumbnails storage.BlobStore,
	cfg *config.Config,
	logger logrus.FieldLogger,
) *ImageService {
	return &ImageService{
		repo:        repo,
		blobs:       blobs,
		thumbnails:  thumbnails,
		logger:      logger.WithField("component", "image_service"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		environment: cfg.Environment,
		strictMime:  cfg.StrictMimeTypes,
		now:         time.Now,
	}
}

func (s *ImageService) BaseURL() string {
	return s.baseURL
}

// Upload validates the content type, writes the blob and inserts the row.
func (s *ImageService) Upload(ctx context.Context, in models.UploadInput) (*models.Image, error) {
	if in.Reader == nil {
		return nil, fmt.Errorf("%w: no file provided", apperrors.ErrInvalidInput)
	}

	body := bufio.NewReaderSize(in.Reader, sniffLen)
	head, err := body.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to read upload: %w", apperrors.ErrInvalidInput, err)
	}

	contentType := normalizeMimeType(in.DeclaredMimeType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = normalizeMimeType(mimetype.Detect(head).String())
	}
	if err := s.validateMimeType(contentType); err != nil {
		return nil, err
	}

	id := uuid.New()
	originalName := baseName(in.OriginalFilename)
	filename := id.String() + extensionFor(originalName)

	size := in.Size
	if size == 0 {
		size = -1
	}
	location, written, err := s.blobs.Put(ctx, filename, body, size, contentType)
	if err != nil {
		if !errors.Is(err, apperrors.ErrStorage) {
			err = fmt.Errorf("%w: failed to store file: %w", apperrors.ErrStorage, err)
		}
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	img := &models.Image{
		ID:               id,
		Filename:         filename,
		OriginalFilename: originalName,
		FilePath:         location,
		FileSize:         written,
		MimeType:         contentType,
		Description:      in.Description,
		Tags:             ParseTags(in.Tags),
		IsPublic:         in.IsPublic,
		UserID:           nullString(in.UserID),
		DeviceInfo:       nullString(in.DeviceInfo),
		AppVersion:       nullString(in.AppVersion),
		Width:            nullInt(in.Width),
		Height:           nullInt(in.Height),
		UploadDate:       now,
		LastModified:     now,
	}

	if err := s.repo.CreateImage(ctx, img); err != nil {
		if cleanupErr := s.blobs.Delete(context.WithoutCancel(ctx), filename); cleanupErr != nil {
			s.logger.WithError(cleanupErr).WithField("filename", filename).Error("failed to remove orphaned blob")
		}
		if !errors.Is(err, apperrors.ErrDatabase) {
			err = fmt.Errorf("%w: failed to save image: %w", apperrors.ErrDatabase, err)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"image_id":  id.String(),
		"filename":  filename,
		"size":      written,
		"mime_type": contentType,
	}).Info("image uploaded")
	return img, nil
}

func (s *ImageService) ListImages(ctx context.Context, filter models.ListFilter) ([]models.Image, error) {
	images, err := s.repo.ListImages(ctx, NormalizeFilter(filter))
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.Image{}
	}
	return images, nil
}

func (s *ImageService) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	return s.repo.GetImage(ctx, id)
}

// FetchBlob opens a stored blob by its storage filename. Names that are not a
// plain file name inside the store are reported as not found.
func (s *ImageService) FetchBlob(ctx context.Context, filename string) (io.ReadCloser, *BlobInfo, error) {
	if err := storage.ValidateName(filename); err != nil {
		s.logger.WithField("filename", filename).Warn("rejected blob name outside the upload directory")
		return nil, nil, err
	}

	reader, err := s.blobs.Open(ctx, filename)
	if err != nil {
		return nil, nil, err
	}
	return reader, &BlobInfo{Filename: filename, MimeType: s.blobMimeType(ctx, filename)}, nil
}

// blobMimeType prefers the type recorded at upload and falls back to the
// extension.
func (s *ImageService) blobMimeType(ctx context.Context, filename string) string {
	ext := filepath.Ext(filename)
	if id, err := uuid.Parse(strings.TrimSuffix(filename, ext)); err == nil {
		if img, err := s.repo.GetImage(ctx, id); err == nil && img.Filename == filename && img.MimeType != "" {
			return img.MimeType
		}
	}
	if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// UpdateImage applies the supplied fields and refreshes last_modified.
func (s *ImageService) UpdateImage(ctx context.Context, id uuid.UUID, req models.UpdateImageRequest) (*models.Image, error) {
	current, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := models.ImageChanges{
		Description:  current.Description,
		Tags:         current.Tags,
		IsPublic:     current.IsPublic,
		LastModified: nextModified(current.LastModified, s.now()),
	}
	if req.Description != nil {
		changes.Description = *req.Description
	}
	if req.Tags != nil {
		changes.Tags = ParseTags(*req.Tags)
	}
	if req.IsPublic != nil {
		changes.IsPublic = *req.IsPublic
	}
	if changes.Tags == nil {
		changes.Tags = []string{}
	}

	updated, err := s.repo.UpdateImage(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("image_id", id.String()).Info("image updated")
	return updated, nil
}

// DeleteImage removes the row, then the blob and thumbnail. Blob removal
// failures are logged and do not fail the call.
func (s *ImageService) DeleteImage(ctx context.Context, id uuid.UUID) error {
	img, err := s.repo.GetImage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteImage(ctx, id); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	s.removeBlob(ctx, s.blobs, img.Filename)
	if img.ThumbnailPath.Valid && img.ThumbnailPath.String != "" && s.thumbnails != nil {
		s.removeBlob(ctx, s.thumbnails, filepath.Base(img.ThumbnailPath.String))
	}

	s.logger.WithField("image_id", id.String()).Info("image deleted")
	return nil
}

func (s *ImageService) removeBlob(ctx context.Context, store storage.BlobStore, name string) {
	log := s.logger.WithField("filename", name)
	if err := storage.ValidateName(name); err != nil {
		log.Warn("skipping removal of invalid blob name")
		return
	}
	if err := store.Delete(ctx, name); err != nil {
		log.WithError(err).Warn("failed to remove blob")
	}
}

// HealthCheck never fails; problems are reported in the response.
func (s *ImageService) HealthCheck(ctx context.Context) models.HealthResponse {
	pingCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	dbStatus := "connected"
	if err := s.repo.Ping(pingCtx); err != nil {
		s.logger.WithError(err).Warn("health check: database unreachable")
		dbStatus = "disconnected"
	}

	dir := s.blobs.Check(ctx)
	status := "healthy"
	if dbStatus != "connected" || !dir.Exists || !dir.Writable {
		status = "unhealthy"
	}

	return models.HealthResponse{
		Status:          status,
		Timestamp:       s.now().UTC(),
		Database:        dbStatus,
		Environment:     s.environment,
		UploadDirectory: dir,
	}
}

func (s *ImageService) validateMimeType(contentType string) error {
	if s.strictMime {
		if !slices.Contains(models.AllowedMimeTypes, contentType) {
			return fmt.Errorf("%w: %q is not one of %s", apperrors.ErrInvalidFileType,
				contentType, strings.Join(models.AllowedMimeTypes, ", "))
		}
		return nil
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: file must be an image, got %q", apperrors.ErrInvalidFileType, contentType)
	}
	return nil
}

// ParseTags splits a comma-separated tag string, trimming blanks and dropping
// empty entries. The result is never nil.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeFilter applies the default and maximum page size.
func NormalizeFilter(filter models.ListFilter) models.ListFilter {
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	return filter
}

func nextModified(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		return prev.UTC().Add(time.Microsecond)
	}
	return now
}

func normalizeMimeType(contentType string) string {
	contentType, _, _ = strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(contentType))
}

func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

func extensionFor(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) < 2 {
		return defaultExtension
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultExtension
		}
	}
	return ext
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
