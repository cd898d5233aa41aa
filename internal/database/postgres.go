package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresRepository stores image metadata in PostgreSQL through lib/pq.
type PostgresRepository struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func NewPostgresRepository(db *sql.DB, logger logrus.FieldLogger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner) (*models.Image, error) {
	var img models.Image
	err := row.Scan(
		&img.ID, &img.Filename, &img.OriginalFilename, &img.FilePath, &img.FileSize,
		&img.MimeType, &img.Description, pq.Array(&img.Tags), &img.IsPublic,
		&img.UserID, &img.DeviceInfo, &img.AppVersion, &img.Width, &img.Height,
		&img.ThumbnailPath, &img.UploadDate, &img.LastModified,
	)
	if err != nil {
		return nil, err
	}
	if img.Tags == nil {
		img.Tags = []string{}
	}
	return &img, nil
}

func (r *PostgresRepository) CreateImage(ctx context.Context, img *models.Image) error {
	tags := img.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.db.ExecContext(ctx, insertImageQuery,
		img.ID, img.Filename, img.OriginalFilename, img.FilePath, img.FileSize,
		img.MimeType, img.Description, pq.Array(tags), img.IsPublic,
		img.UserID, img.DeviceInfo, img.AppVersion, img.Width, img.Height,
		img.ThumbnailPath, img.UploadDate, img.LastModified,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: duplicate image %s: %w", apperrors.ErrDatabase, img.Filename, err)
		}
		return fmt.Errorf("%w: failed to create image: %w", apperrors.ErrDatabase, err)
	}

	return nil
}

func (r *PostgresRepository) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, selectImageQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get image: %w", apperrors.ErrDatabase, err)
	}

	return img, nil
}

func (r *PostgresRepository) ListImages(ctx context.Context, filter models.ListFilter) ([]models.Image, error) {
	query, args := buildListQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list images: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	images := make([]models.Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan image: %w", apperrors.ErrDatabase, err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to list images: %w", apperrors.ErrDatabase, err)
	}

	return images, nil
}

func (r *PostgresRepository) UpdateImage(ctx context.Context, id uuid.UUID, changes models.ImageChanges) (*models.Image, error) {
	tags := changes.Tags
	if tags == nil {
		tags = []string{}
	}

	img, err := scanImage(r.db.QueryRowContext(ctx, updateImageQuery,
		changes.Description, pq.Array(tags), changes.IsPublic, changes.LastModified, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to update image: %w", apperrors.ErrDatabase, err)
	}

	return img, nil
}

func (r *PostgresRepository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, deleteImageQuery, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete image: %w", apperrors.ErrDatabase, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to delete image: %w", apperrors.ErrDatabase, err)
	}
	if affected == 0 {
		return fmt.Errorf("image %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	return NewMigrator(r.db, r.logger).Run(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
