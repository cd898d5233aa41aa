package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/handlers"
	"photo-picker-backend/internal/middleware"
	"photo-picker-backend/internal/services"
)

// NewRouter registers every route on a fresh gin engine.
func NewRouter(cfg *config.Config, service *services.ImageService, logger logrus.FieldLogger) *gin.Engine {
	imagesHandler := handlers.NewImagesHandler(service, cfg.MaxUploadBytes, logger)
	filesHandler := handlers.NewFilesHandler(service, logger)
	healthHandler := handlers.NewHealthHandler(service, cfg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.Default())

	// Health and introspection
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.Health)
	router.GET("/config", healthHandler.Config)

	// Images
	router.POST("/upload", imagesHandler.Upload)
	router.POST("/images", imagesHandler.Upload)
	router.GET("/images", imagesHandler.List)
	router.GET("/images/:ref", imagesHandler.Get)
	router.PUT("/images/:id", imagesHandler.Update)
	router.DELETE("/images/:id", imagesHandler.Delete)

	// Raw files
	router.GET("/uploads/:filename", filesHandler.Serve)

	return router
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func Run(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
