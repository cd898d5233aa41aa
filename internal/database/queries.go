package database

import (
	"fmt"
	"strings"

	"photo-picker-backend/internal/models"
)

const imageColumns = `id, filename, original_filename, file_path, file_size, mime_type, description, tags,
	is_public, user_id, device_info, app_version, width, height, thumbnail_path, upload_date, last_modified`

const insertImageQuery = `
	INSERT INTO images (` + imageColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
`

const selectImageQuery = `
	SELECT ` + imageColumns + `
	FROM images
	WHERE id = $1
`

const updateImageQuery = `
	UPDATE images
	SET description = $1, tags = $2, is_public = $3, last_modified = $4
	WHERE id = $5
	RETURNING ` + imageColumns

const deleteImageQuery = `
	DELETE FROM images
	WHERE id = $1
`

// buildListQuery applies the equality filters, newest first, then the page window.
func buildListQuery(filter models.ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.IsPublic != nil {
		args = append(args, *filter.IsPublic)
		conditions = append(conditions, fmt.Sprintf("is_public = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + imageColumns + " FROM images")
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY upload_date DESC, id DESC")

	args = append(args, filter.Limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	args = append(args, filter.Skip)
	fmt.Fprintf(&b, " OFFSET $%d", len(args))

	return b.String(), args
}
