package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/models"
	"photo-picker-backend/internal/services"
)

// fileFields are the multipart field names accepted for the uploaded file,
// checked in order.
var fileFields = []string{"image", "file", "images", "photo"}

type ImagesHandler struct {
	service        *services.ImageService
	maxUploadBytes int64
	logger         logrus.FieldLogger
}

func NewImagesHandler(service *services.ImageService, maxUploadBytes int64, logger logrus.FieldLogger) *ImagesHandler {
	return &ImagesHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload godoc
// @Summary     Upload an image
// @Description Stores the uploaded file and its metadata. The file may be sent
// @Description in any of the form fields image, file, images or photo.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Param       image formData file true "Image file"
// @Param       description formData string false "Free text description"
// @Param       tags formData string false "Comma-separated tags"
// @Param       user_id formData string false "Owner id"
// @Param       is_public formData boolean false "Visible to everyone"
// @Param       device_info formData string false "Client device"
// @Param       app_version formData string false "Client app version"
// @Param       width formData integer false "Width in pixels"
// @Param       height formData integer false "Height in pixels"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /upload [post]
// @Router      /images [post]
func (h *ImagesHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	// Set max memory for multipart form (32MB)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "file too large",
				Message: "upload exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	header := firstFile(c.Request.MultipartForm)
	if header == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "no file provided"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read file",
			Message: err.Error(),
		})
		return
	}
	defer f.Close()

	in := models.UploadInput{
		Reader:           f,
		Size:             header.Size,
		OriginalFilename: header.Filename,
		DeclaredMimeType: header.Header.Get("Content-Type"),
		Description:      c.PostForm("description"),
		Tags:             c.PostForm("tags"),
		UserID:           optionalForm(c, "user_id"),
		DeviceInfo:       optionalForm(c, "device_info"),
		AppVersion:       optionalForm(c, "app_version"),
	}
	if in.IsPublic, err = formBool(c, "is_public"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if in.Width, err = formInt(c, "width"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if in.Height, err = formInt(c, "height"); err != nil {
		respondError(c, h.logger, err)
		return
	}

	img, err := h.service.Upload(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.NewImageResponse(img, h.service.BaseURL())
	c.JSON(http.StatusOK, models.UploadResponse{
		Success:  true,
		Message:  "Image uploaded successfully",
		ImageID:  resp.ID,
		ImageURL: resp.URL,
		Filename: img.Filename,
		FileSize: img.FileSize,
		Image:    resp,
	})
}

// List godoc
// @Summary     List images
// @Description Returns image metadata, newest upload first
// @Tags        images
// @Produce     json
// @Param       skip query int false "Records to skip"
// @Param       limit query int false "Page size (default 100, max 1000)"
// @Param       user_id query string false "Only images owned by this user"
// @Param       is_public query boolean false "Only public or only private images"
// @Success     200 {object} models.ImageListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ImageListResponse
// @Router      /images [get]
func (h *ImagesHandler) List(c *gin.Context) {
	var query models.ListImagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid query parameters",
			Message: err.Error(),
		})
		return
	}

	images, err := h.service.ListImages(c.Request.Context(), models.ListFilter{
		Skip:     query.Skip,
		Limit:    query.Limit,
		UserID:   query.UserID,
		IsPublic: query.IsPublic,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to list images")
		c.JSON(apperrors.HTTPStatus(err), models.ImageListResponse{
			Success: false,
			Images:  []models.ImageResponse{},
			Error:   err.Error(),
		})
		return
	}

	resp := make([]models.ImageResponse, 0, len(images))
	for i := range images {
		resp = append(resp, models.NewImageResponse(&images[i], h.service.BaseURL()))
	}
	c.JSON(http.StatusOK, models.ImageListResponse{
		Success: true,
		Images:  resp,
		Count:   len(resp),
	})
}

// Get godoc
// @Summary     Get an image
// @Description A UUID returns the image metadata. Any other value is treated
// @Description as a stored file name and returns the file bytes.
// @Tags        images
// @Produce     json
// @Produce     image/jpeg
// @Param       ref path string true "Image id (UUID) or stored file name"
// @Success     200 {object} models.ImageResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /images/{ref} [get]
func (h *ImagesHandler) Get(c *gin.Context) {
	ref := c.Param("ref")

	id, err := uuid.Parse(ref)
	if err != nil {
		serveBlob(c, h.service, h.logger, ref)
		return
	}

	img, err := h.service.GetImage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewImageResponse(img, h.service.BaseURL()))
}

// Update godoc
// @Summary     Update image metadata
// @Description Changes description, tags and visibility. Omitted fields keep their value.
// @Tags        images
// @Accept      json
// @Accept      x-www-form-urlencoded
// @Produce     json
// @Param       id path string true "Image ID (UUID)"
// @Param       request body models.UpdateImageRequest true "Fields to change"
// @Success     200 {object} models.ImageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /images/{id} [put]
func (h *ImagesHandler) Update(c *gin.Context) {
	id, ok := imageID(c)
	if !ok {
		return
	}

	var req models.UpdateImageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid request",
				Message: err.Error(),
			})
			return
		}
	}

	img, err := h.service.UpdateImage(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewImageResponse(img, h.service.BaseURL()))
}

// Delete godoc
// @Summary     Delete an image
// @Description Removes the metadata row and the stored file
// @Tags        images
// @Produce     json
// @Param       id path string true "Image ID (UUID)"
// @Success     200 {object} models.DeleteResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /images/{id} [delete]
func (h *ImagesHandler) Delete(c *gin.Context) {
	id, ok := imageID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteImage(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteResponse{
		Success: true,
		Message: "Image deleted successfully",
		ImageID: id.String(),
	})
}

// imageID parses the :id path parameter. A malformed id cannot name a
// stored image, so it is answered with 404.
func imageID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not found",
			Message: "image not found",
		})
		return uuid.Nil, false
	}
	return id, true
}

func firstFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	for _, field := range fileFields {
		if files := form.File[field]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok && v != "" {
		return &v
	}
	return nil
}

func formBool(c *gin.Context, key string) (bool, error) {
	v := c.PostForm(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", apperrors.ErrInvalidInput, key)
	}
	return b, nil
}

func formInt(c *gin.Context, key string) (*int64, error) {
	v := c.PostForm(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", apperrors.ErrInvalidInput, key)
	}
	return &n, nil
}

func respondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(status, models.ErrorResponse{
		Error:   apperrors.Label(err),
		Message: err.Error(),
	})
}
