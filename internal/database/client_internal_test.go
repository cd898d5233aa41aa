package database

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
)

// hangingBackend blocks in Migrate until its context is done, like a
// database host that accepts no connections.
type hangingBackend struct {
	Backend
	migrateCalls int
}

func (b *hangingBackend) Migrate(ctx context.Context) error {
	b.migrateCalls++
	<-ctx.Done()
	return ctx.Err()
}

func TestClient_EnsureSchemaBoundsMigration(t *testing.T) {
	logger, _ := test.NewNullLogger()
	backend := &hangingBackend{}
	client := NewClient(backend, logger)
	client.migrateTimeout = 20 * time.Millisecond

	start := time.Now()
	_, err := client.ListImages(context.Background(), models.ListFilter{Limit: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, client.schemaReady.Load())

	_, err = client.ListImages(context.Background(), models.ListFilter{Limit: 10})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, backend.migrateCalls)
}

func TestNewClient_DefaultMigrateTimeout(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := NewClient(&hangingBackend{}, logger)
	assert.Equal(t, defaultMigrateTimeout, client.migrateTimeout)
}
