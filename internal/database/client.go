package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/models"
)

const defaultMigrateTimeout = 5 * time.Second

// Client wraps a Backend and makes sure the schema exists before the first
// repository call. When the database was unreachable at startup the migration
// is retried on every call until it succeeds.
type Client struct {
	backend Backend
	logger  logrus.FieldLogger

	// migrateTimeout bounds a single migration attempt.
	migrateTimeout time.Duration

	mu          sync.Mutex
	schemaReady atomic.Bool
}

func NewClient(backend Backend, logger logrus.FieldLogger) *Client {
	return &Client{
		backend:        backend,
		logger:         logger,
		migrateTimeout: defaultMigrateTimeout,
	}
}

// Connect opens the configured backend and waits for it with a bounded retry.
// A database that stays unreachable is not fatal: the returned client defers
// the schema migration to the first request.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger logrus.FieldLogger) (*Client, error) {
	backend, err := Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	client := NewClient(backend, logger)

	err = RetryWithBackoff(ctx, func() error {
		if err := backend.Ping(ctx); err != nil {
			logger.WithError(err).Warn("database connection attempt failed")
			return err
		}
		return nil
	}, cfg.ConnectAttempts, cfg.ConnectRetryDelay)
	if err != nil {
		logger.WithError(err).Warn("database unavailable, starting without schema migration")
		return client, nil
	}

	if err := client.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Warn("schema migration failed, will retry on next request")
	}
	return client, nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	if c.schemaReady.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schemaReady.Load() {
		return nil
	}

	migrateCtx, cancel := context.WithTimeout(ctx, c.migrateTimeout)
	defer cancel()
	if err := c.backend.Migrate(migrateCtx); err != nil {
		return fmt.Errorf("%w: schema not ready: %w", apperrors.ErrDatabase, err)
	}
	c.schemaReady.Store(true)
	c.logger.Info("database schema ready")
	return nil
}

func (c *Client) CreateImage(ctx context.Context, img *models.Image) error {
	if err := c.EnsureSchema(ctx); err != nil {
		return err
	}
	return c.backend.CreateImage(ctx, img)
}

func (c *Client) GetImage(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	if err := c.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return c.backend.GetImage(ctx, id)
}

func (c *Client) ListImages(ctx context.Context, filter models.ListFilter) ([]models.Image, error) {
	if err := c.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return c.backend.ListImages(ctx, filter)
}

func (c *Client) UpdateImage(ctx context.Context, id uuid.UUID, changes models.ImageChanges) (*models.Image, error) {
	if err := c.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return c.backend.UpdateImage(ctx, id, changes)
}

func (c *Client) DeleteImage(ctx context.Context, id uuid.UUID) error {
	if err := c.EnsureSchema(ctx); err != nil {
		return err
	}
	return c.backend.DeleteImage(ctx, id)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

func (c *Client) Close() error {
	return c.backend.Close()
}
