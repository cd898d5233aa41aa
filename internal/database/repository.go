package database

import (
	"context"

	"github.com/google/uuid"
	"photo-picker-backend/internal/models"
)

// Repository is the Metadata Table. Lookups of unknown ids return an error
// wrapping apperrors.ErrNotFound; other failures wrap apperrors.ErrDatabase.
type Repository interface {
	CreateImage(ctx context.Context, img *models.Image) error
	GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error)
	ListImages(ctx context.Context, filter models.ListFilter) ([]models.Image, error)
	UpdateImage(ctx context.Context, id uuid.UUID, changes models.ImageChanges) (*models.Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// Backend is a Repository that owns its connection pool and schema.
type Backend interface {
	Repository
	Migrate(ctx context.Context) error
	Close() error
}
