package models

import "time"

type RootResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type ImageResponse struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"originalFilename,omitempty"`
	URL              string    `json:"url"`
	FileSize         int64     `json:"fileSize"`
	MimeType         string    `json:"mimeType"`
	Description      string    `json:"description"`
	Tags             []string  `json:"tags"`
	IsPublic         bool      `json:"isPublic"`
	UserID           string    `json:"userId,omitempty"`
	DeviceInfo       string    `json:"deviceInfo,omitempty"`
	AppVersion       string    `json:"appVersion,omitempty"`
	Width            int64     `json:"width,omitempty"`
	Height           int64     `json:"height,omitempty"`
	UploadDate       time.Time `json:"uploadDate"`
	LastModified     time.Time `json:"lastModified"`
}

type UploadResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	ImageID  string        `json:"imageId"`
	ImageURL string        `json:"imageUrl"`
	Filename string        `json:"filename"`
	FileSize int64         `json:"fileSize"`
	Image    ImageResponse `json:"image"`
}

type ImageListResponse struct {
	Success bool            `json:"success"`
	Images  []ImageResponse `json:"images"`
	Count   int             `json:"count"`
	Error   string          `json:"error,omitempty"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ImageID string `json:"imageId"`
}

type DirectoryStatus struct {
	Exists   bool   `json:"exists"`
	Writable bool   `json:"writable"`
	Path     string `json:"path"`
}

type HealthResponse struct {
	Status          string          `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	Database        string          `json:"database"`
	Environment     string          `json:"environment"`
	UploadDirectory DirectoryStatus `json:"upload_directory"`
}

// NewImageResponse flattens a record for JSON output. baseURL has no trailing slash.
func NewImageResponse(img *Image, baseURL string) ImageResponse {
	tags := img.Tags
	if tags == nil {
		tags = []string{}
	}
	resp := ImageResponse{
		ID:               img.ID.String(),
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		URL:              PublicURL(baseURL, img.Filename),
		FileSize:         img.FileSize,
		MimeType:         img.MimeType,
		Description:      img.Description,
		Tags:             tags,
		IsPublic:         img.IsPublic,
		UploadDate:       img.UploadDate,
		LastModified:     img.LastModified,
	}
	if img.UserID.Valid {
		resp.UserID = img.UserID.String
	}
	if img.DeviceInfo.Valid {
		resp.DeviceInfo = img.DeviceInfo.String
	}
	if img.AppVersion.Valid {
		resp.AppVersion = img.AppVersion.String
	}
	if img.Width.Valid {
		resp.Width = img.Width.Int64
	}
	if img.Height.Valid {
		resp.Height = img.Height.Int64
	}
	return resp
}

func PublicURL(baseURL, filename string) string {
	return baseURL + "/images/" + filename
}
