package cli

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"photo-picker-backend/internal/config"
	"photo-picker-backend/internal/database"
	"photo-picker-backend/internal/server"
	"photo-picker-backend/internal/services"
	"photo-picker-backend/internal/storage"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Starts the image API. The database is pinged with a bounded retry;
when it stays unreachable the server still starts and the schema is
created on the first request that needs it.`,
		Example: `  # Start with environment configuration
  photo-picker serve

  # Start with a config file
  photo-picker serve --config config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}

	if cfg.Environment == config.EnvironmentProduction || cfg.Environment == config.EnvironmentRender {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.WithFields(cfg.Summary()).Info("starting photo picker")

	client, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer client.Close()

	blobs, thumbnails, err := storage.NewStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	service := services.NewImageService(client, blobs, thumbnails, cfg, logger)
	router := server.NewRouter(cfg, service, logger)

	return server.Run(ctx, ":"+cfg.Port, router, cfg.ShutdownTimeout, logger)
}
