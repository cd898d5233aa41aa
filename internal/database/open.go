package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"photo-picker-backend/internal/apperrors"
	"photo-picker-backend/internal/config"
)

// Open creates the backend for cfg.Driver without touching the network.
func Open(cfg config.DatabaseConfig, logger logrus.FieldLogger) (Backend, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open database: %w", apperrors.ErrDatabase, err)
		}
		configurePool(db, cfg)
		return NewPostgresRepository(db, logger), nil

	case config.DriverMySQL, config.DriverSQLite:
		var dialector gorm.Dialector
		if cfg.Driver == config.DriverMySQL {
			dialector = mysql.Open(dsn)
		} else {
			dialector = sqlite.Open(dsn)
		}
		db, err := gorm.Open(dialector, &gorm.Config{
			DisableAutomaticPing: true,
			Logger: gormlogger.New(logger, gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open database: %w", apperrors.ErrDatabase, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to access connection pool: %w", apperrors.ErrDatabase, err)
		}
		configurePool(sqlDB, cfg)
		return NewGormRepository(db), nil

	default:
		return nil, fmt.Errorf("%w: unsupported DB_DRIVER %q", apperrors.ErrConfiguration, cfg.Driver)
	}
}

func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
