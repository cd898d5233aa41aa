package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

// tagList is stored as a JSON array in a text column.
type tagList []string

func (t tagList) Value() (driver.Value, error) {
	if t == nil {
		t = tagList{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *tagList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = tagList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported tags type %T", src)
	}
	if len(raw) == 0 {
		*t = tagList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(t))
}

type imageRow struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)"`
	Filename         string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	OriginalFilename string         `gorm:"type:varchar(255);not null;default:''"`
	FilePath         string         `gorm:"type:varchar(500);not null"`
	FileSize         int64          `gorm:"not null"`
	MimeType         string         `gorm:"type:varchar(100);not null"`
	Description      string         `gorm:"type:text"`
	Tags             tagList        `gorm:"type:text"`
	IsPublic         bool           `gorm:"not null;default:false;index"`
	UserID           sql.NullString `gorm:"type:varchar(255);index"`
	DeviceInfo       sql.NullString `gorm:"type:text"`
	AppVersion       sql.NullString `gorm:"type:varchar(50)"`
	Width            sql.NullInt64
	Height           sql.NullInt64
	ThumbnailPath    sql.NullString `gorm:"type:varchar(500)"`
	UploadDate       time.Time      `gorm:"not null;index;precision:6"`
	LastModified     time.Time      `gorm:"not null;precision:6"`
}

func (imageRow) TableName() string {
	return "images"
}

func toRow(img *models.Image) *imageRow {
	return &imageRow{
		ID:               img.ID.String(),
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		FilePath:         img.FilePath,
		FileSize:         img.FileSize,
		MimeType:         img.MimeType,
		Description:      img.Description,
		Tags:             tagList(img.Tags),
		IsPublic:         img.IsPublic,
		UserID:           img.UserID,
		DeviceInfo:       img.DeviceInfo,
		AppVersion:       img.AppVersion,
		Width:            img.Width,
		Height:           img.Height,
		ThumbnailPath:    img.ThumbnailPath,
		UploadDate:       img.UploadDate,
		LastModified:     img.LastModified,
	}
}

func (r *imageRow) toModel() (*models.Image, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt image id %q: %w", apperrors.ErrDatabase, r.ID, err)
	}
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &models.Image{
		ID:               id,
		Filename:         r.Filename,
		OriginalFilename: r.OriginalFilename,
		FilePath:         r.FilePath,
		FileSize:         r.FileSize,
		MimeType:         r.MimeType,
		Description:      r.Description,
		Tags:             tags,
		IsPublic:         r.IsPublic,
		UserID:           r.UserID,
		DeviceInfo:       r.DeviceInfo,
		AppVersion:       r.AppVersion,
		Width:            r.Width,
		Height:           r.Height,
		ThumbnailPath:    r.ThumbnailPath,
		UploadDate:       r.UploadDate.UTC(),
		LastModified:     r.LastModified.UTC(),
	}, nil
}

// GormRepository stores image metadata through gorm. It backs the MySQL and
// SQLite drivers.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) CreateImage(ctx context.Context, img *models.Image) error {
	if err := r.db.WithContext(ctx).Create(toRow(img)).Error; err != nil {
		return fmt.Errorf("%w: failed to create image: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *GormRepository) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	var row imageRow
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("image %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get image: %w", apperrors.ErrDatabase, err)
	}
	return row.toModel()
}

func (r *GormRepository) ListImages(ctx context.Context, filter models.ListFilter) ([]models.Image, error) {
	query := r.db.WithContext(ctx).Model(&imageRow{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.IsPublic != nil {
		query = query.Where("is_public = ?", *filter.IsPublic)
	}

	var rows []imageRow
	err := query.
		Order("upload_date DESC").
		Order("id DESC").
		Offset(filter.Skip).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list images: %w", apperrors.ErrDatabase, err)
	}

	images := make([]models.Image, 0, len(rows))
	for i := range rows {
		img, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, nil
}

func (r *GormRepository) UpdateImage(ctx context.Context, id uuid.UUID, changes models.ImageChanges) (*models.Image, error) {
	result := r.db.WithContext(ctx).
		Model(&imageRow{}).
		Where("id = ?", id.String()).
		Updates(map[string]interface{}{
			"description":   changes.Description,
			"tags":          tagList(changes.Tags),
			"is_public":     changes.IsPublic,
			"last_modified": changes.LastModified,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%w: failed to update image: %w", apperrors.ErrDatabase, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("image %s: %w", id, apperrors.ErrNotFound)
	}
	return r.GetImage(ctx, id)
}

func (r *GormRepository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&imageRow{})
	if result.Error != nil {
		return fmt.Errorf("%w: failed to delete image: %w", apperrors.ErrDatabase, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("image %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *GormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&imageRow{})
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
