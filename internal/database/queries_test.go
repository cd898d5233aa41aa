package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"photo-picker-backend/internal/models"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	query, args := buildListQuery(models.ListFilter{Skip: 20, Limit: 10})

	assert.Contains(t, query, "FROM images ORDER BY upload_date DESC, id DESC LIMIT $1 OFFSET $2")
	assert.NotContains(t, query, "WHERE")
	assert.Equal(t, []interface{}{10, 20}, args)
}

func TestBuildListQuery_Filters(t *testing.T) {
	user := "user-1"
	public := true

	query, args := buildListQuery(models.ListFilter{Limit: 5, UserID: &user, IsPublic: &public})

	assert.Contains(t, query, "WHERE user_id = $1 AND is_public = $2 ORDER BY upload_date DESC")
	assert.Contains(t, query, "LIMIT $3 OFFSET $4")
	assert.Equal(t, []interface{}{"user-1", true, 5, 0}, args)
}

func TestMigrationNames(t *testing.T) {
	names, err := MigrationNames()

	assert.NoError(t, err)
	assert.Equal(t, []string{"001_create_images.sql"}, names)
}
