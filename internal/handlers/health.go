package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/models"
	"photo-picker-backend/internal/services"
)

type HealthHandler struct {
	service *services.ImageService
	cfg     *config.Config
}

func NewHealthHandler(service *services.ImageService, cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		service: service,
		cfg:     cfg,
	}
}

// Root godoc
// @Summary     Service banner
// @Tags        health
// @Produce     json
// @Success     200 {object} models.RootResponse
// @Router      / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.RootResponse{
		Message:   "Photo Picker API is running",
		Status:    "success",
		Timestamp: time.Now().UTC(),
	})
}

// Health godoc
// @Summary     Health check
// @Description Reports database connectivity and upload directory status.
// @Description Always answers 200; problems are reported in the body.
// @Tags        health
// @Accept      json
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.HealthCheck(c.Request.Context()))
}

// Config godoc
// @Summary     Effective configuration
// @Description Returns the non-secret configuration the server is running with
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]interface{}
// @Router      /config [get]
func (h *HealthHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Summary())
}
