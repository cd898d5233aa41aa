package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"photo-picker-backend/internal/services"
)

type FilesHandler struct {
	service *services.ImageService
	logger  logrus.FieldLogger
}

func NewFilesHandler(service *services.ImageService, logger logrus.FieldLogger) *FilesHandler {
	return &FilesHandler{
		service: service,
		logger:  logger,
	}
}

// Serve godoc
// @Summary     Download a stored file
// @Description Streams the stored image bytes by storage file name
// @Tags        files
// @Produce     image/jpeg
// @Produce     image/png
// @Param       filename path string true "Stored file name"
// @Success     200 {file} file
// @Failure     404 {object} models.ErrorResponse
// @Router      /uploads/{filename} [get]
func (h *FilesHandler) Serve(c *gin.Context) {
	serveBlob(c, h.service, h.logger, c.Param("filename"))
}

func serveBlob(c *gin.Context, service *services.ImageService, logger logrus.FieldLogger, name string) {
	reader, info, err := service.FetchBlob(c.Request.Context(), name)
	if err != nil {
		respondError(c, logger, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", info.MimeType)
	if seeker, ok := reader.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, info.Filename, time.Time{}, seeker)
		return
	}
	c.DataFromReader(http.StatusOK, -1, info.MimeType, reader, nil)
}
