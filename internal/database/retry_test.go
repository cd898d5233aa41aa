package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"photo-picker-backend/internal/database"
)

func TestRetryWithBackoff(t *testing.T) {
	callCount := 0
	err := database.RetryWithBackoff(context.Background(), func() error {
		callCount++
		if callCount < 3 {
			return assert.AnError
		}
		return nil
	}, 3, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	callCount := 0
	err := database.RetryWithBackoff(context.Background(), func() error {
		callCount++
		return assert.AnError
	}, 3, time.Millisecond)

	assert.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, callCount)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0
	err := database.RetryWithBackoff(ctx, func() error {
		callCount++
		cancel()
		return assert.AnError
	}, 5, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
}
