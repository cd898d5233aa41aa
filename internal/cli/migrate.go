package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"photo-picker-backend/internal/database"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}

			backend, err := database.Open(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			err = database.RetryWithBackoff(cmd.Context(), func() error {
				return backend.Ping(cmd.Context())
			}, cfg.Database.ConnectAttempts, cfg.Database.ConnectRetryDelay)
			if err != nil {
				return fmt.Errorf("database unavailable: %w", err)
			}

			if err := backend.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.WithField("driver", cfg.Database.Driver).Info("database schema is up to date")
			return nil
		},
	}
}
