package models

import "io"

// UploadInput is everything the service needs to store a new image.
type UploadInput struct {
	Reader io.Reader
	// Size is the content length in bytes, or -1 when unknown.
	Size             int64
	OriginalFilename string
	DeclaredMimeType string

	Description string
	// Tags is the raw comma-separated tag string.
	Tags       string
	IsPublic   bool
	UserID     *string
	DeviceInfo *string
	AppVersion *string
	Width      *int64
	Height     *int64
}

// UpdateImageRequest binds from JSON or form bodies. Absent fields stay nil
// and leave the stored value untouched.
type UpdateImageRequest struct {
	Description *string `json:"description" form:"description"`
	Tags        *string `json:"tags" form:"tags"`
	IsPublic    *bool   `json:"is_public" form:"is_public"`
}

type ListImagesQuery struct {
	Skip     int     `form:"skip"`
	Limit    int     `form:"limit"`
	UserID   *string `form:"user_id"`
	IsPublic *bool   `form:"is_public"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
