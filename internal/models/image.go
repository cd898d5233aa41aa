package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AllowedMimeTypes is the allow-list applied when strict validation is on.
var AllowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

type Image struct {
	ID               uuid.UUID
	Filename         string
	OriginalFilename string
	FilePath         string
	FileSize         int64
	MimeType         string
	Description      string
	Tags             []string
	IsPublic         bool
	UserID           sql.NullString
	DeviceInfo       sql.NullString
	AppVersion       sql.NullString
	Width            sql.NullInt64
	Height           sql.NullInt64
	ThumbnailPath    sql.NullString
	UploadDate       time.Time
	LastModified     time.Time
}

// ListFilter selects a page of images. Nil filters are not applied.
type ListFilter struct {
	Skip     int
	Limit    int
	UserID   *string
	IsPublic *bool
}

// ImageChanges carries the mutable columns written by an update.
type ImageChanges struct {
	Description  string
	Tags         []string
	IsPublic     bool
	LastModified time.Time
}
