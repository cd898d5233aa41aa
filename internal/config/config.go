package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
	"photo-picker-backend/internal/apperrors"
)

const (
	EnvironmentLocal      = "local"
	EnvironmentDocker     = "docker"
	EnvironmentRender     = "render"
	EnvironmentProduction = "production"

	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	BlobBackendLocal    = "local"
	BlobBackendSupabase = "supabase"
	BlobBackendS3       = "s3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the database file for the sqlite driver.
	Path string `yaml:"path"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	ConnectAttempts   int           `yaml:"connect_attempts"`
	ConnectRetryDelay time.Duration `yaml:"connect_retry_delay"`
}

type SupabaseConfig struct {
	URL        string `yaml:"url"`
	ServiceKey string `yaml:"service_key"`
	Bucket     string `yaml:"bucket"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type Config struct {
	// Server
	Port            string        `yaml:"port"`
	Environment     string        `yaml:"environment"`
	BaseURL         string        `yaml:"base_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Uploads
	UploadDir       string `yaml:"upload_dir"`
	ThumbnailDir    string `yaml:"thumbnail_dir"`
	StrictMimeTypes bool   `yaml:"strict_mime_types"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
	BlobBackend     string `yaml:"blob_backend"`

	Database DatabaseConfig `yaml:"database"`
	Supabase SupabaseConfig `yaml:"supabase"`
	S3       S3Config       `yaml:"s3"`
	Log      LogConfig      `yaml:"log"`
}

// Load builds the configuration from defaults for the detected environment,
// an optional YAML file and environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Defaults(DetectEnvironment())

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file: %w", apperrors.ErrConfiguration, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config file: %w", apperrors.ErrConfiguration, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DetectEnvironment reports where the process runs. An explicit ENVIRONMENT wins.
func DetectEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if os.Getenv("RENDER") != "" {
		return EnvironmentRender
	}
	if os.Getenv("RUNNING_IN_DOCKER") != "" {
		return EnvironmentDocker
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return EnvironmentDocker
	}
	return EnvironmentLocal
}

func Defaults(environment string) *Config {
	cfg := &Config{
		Port:            "8000",
		Environment:     environment,
		BaseURL:         "http://localhost:8000",
		ShutdownTimeout: 10 * time.Second,
		UploadDir:       "uploads",
		ThumbnailDir:    "thumbnails",
		StrictMimeTypes: true,
		MaxUploadBytes:  32 << 20,
		BlobBackend:     BlobBackendLocal,
		Database: DatabaseConfig{
			Driver:            DriverPostgres,
			Host:              "localhost",
			Port:              5432,
			Name:              "photo_picker_db",
			User:              "postgres",
			SSLMode:           "disable",
			Path:              "photo_picker.db",
			MaxOpenConns:      10,
			MaxIdleConns:      5,
			ConnMaxLifetime:   30 * time.Minute,
			ConnectAttempts:   3,
			ConnectRetryDelay: 2 * time.Second,
		},
		Supabase: SupabaseConfig{
			Bucket: "images",
		},
		S3: S3Config{
			Bucket: "images",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	switch environment {
	case EnvironmentDocker:
		cfg.Database.Host = "db"
	case EnvironmentRender:
		cfg.UploadDir = "/tmp/uploads"
		cfg.ThumbnailDir = "/tmp/thumbnails"
		cfg.Log.Format = "json"
	}

	return cfg
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	if c.Environment == EnvironmentRender {
		c.BaseURL = getEnv("RENDER_EXTERNAL_URL", c.BaseURL)
	}
	c.BaseURL = strings.TrimSuffix(getEnv("BASE_URL", c.BaseURL), "/")
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.ThumbnailDir = getEnv("THUMBNAIL_DIR", c.ThumbnailDir)
	c.BlobBackend = getEnv("BLOB_BACKEND", c.BlobBackend)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	if c.Environment == EnvironmentRender {
		c.Database.URL = getEnv("CLEARDB_DATABASE_URL", c.Database.URL)
	}
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	if os.Getenv("DB_DRIVER") == "" {
		if driver := driverFromURL(c.Database.URL); driver != "" {
			c.Database.Driver = driver
		}
	}
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)

	c.Supabase.URL = getEnv("SUPABASE_URL", c.Supabase.URL)
	c.Supabase.ServiceKey = getEnv("SUPABASE_SERVICE_KEY", c.Supabase.ServiceKey)
	c.Supabase.Bucket = getEnv("SUPABASE_STORAGE_BUCKET", c.Supabase.Bucket)

	c.S3.Endpoint = getEnv("S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = getEnv("S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = getEnv("S3_SECRET_KEY", c.S3.SecretKey)
	c.S3.Bucket = getEnv("S3_BUCKET", c.S3.Bucket)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	var err error
	if c.Database.Port, err = getEnvInt("DB_PORT", c.Database.Port); err != nil {
		return err
	}
	if c.Database.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns); err != nil {
		return err
	}
	if c.Database.MaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns); err != nil {
		return err
	}
	if c.Database.ConnectAttempts, err = getEnvInt("DB_CONNECT_ATTEMPTS", c.Database.ConnectAttempts); err != nil {
		return err
	}
	if c.Database.ConnMaxLifetime, err = getEnvDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime); err != nil {
		return err
	}
	if c.Database.ConnectRetryDelay, err = getEnvDuration("DB_CONNECT_RETRY_DELAY", c.Database.ConnectRetryDelay); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	if c.StrictMimeTypes, err = getEnvBool("STRICT_MIME_TYPES", c.StrictMimeTypes); err != nil {
		return err
	}
	if c.S3.UseSSL, err = getEnvBool("S3_USE_SSL", c.S3.UseSSL); err != nil {
		return err
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: MAX_UPLOAD_BYTES: %w", apperrors.ErrConfiguration, err)
		}
		c.MaxUploadBytes = n
	}

	return nil
}

func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: PORT must be numeric, got %q", apperrors.ErrConfiguration, c.Port)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("%w: UPLOAD_DIR is required", apperrors.ErrConfiguration)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: MAX_UPLOAD_BYTES must be positive", apperrors.ErrConfiguration)
	}
	if c.Database.ConnectAttempts < 1 {
		return fmt.Errorf("%w: DB_CONNECT_ATTEMPTS must be at least 1", apperrors.ErrConfiguration)
	}
	if c.Database.ConnectRetryDelay < 0 {
		return fmt.Errorf("%w: DB_CONNECT_RETRY_DELAY must not be negative", apperrors.ErrConfiguration)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "") {
			return fmt.Errorf("%w: DATABASE_URL or DB_HOST, DB_NAME and DB_USER are required", apperrors.ErrConfiguration)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: DB_PATH is required for sqlite", apperrors.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported DB_DRIVER %q", apperrors.ErrConfiguration, c.Database.Driver)
	}

	switch c.BlobBackend {
	case BlobBackendLocal:
	case BlobBackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" || c.Supabase.Bucket == "" {
			return fmt.Errorf("%w: SUPABASE_URL, SUPABASE_SERVICE_KEY and SUPABASE_STORAGE_BUCKET are required", apperrors.ErrConfiguration)
		}
	case BlobBackendS3:
		if c.S3.Endpoint == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "" || c.S3.Bucket == "" {
			return fmt.Errorf("%w: S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY and S3_BUCKET are required", apperrors.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unsupported BLOB_BACKEND %q", apperrors.ErrConfiguration, c.BlobBackend)
	}

	return nil
}

// DSN returns the driver specific connection string.
func (d DatabaseConfig) DSN() (string, error) {
	switch d.Driver {
	case DriverPostgres:
		if d.URL != "" {
			return d.URL, nil
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode), nil
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.ParseTime = true
		mc.Loc = time.UTC
		if d.URL != "" {
			u, err := url.Parse(d.URL)
			if err != nil {
				return "", fmt.Errorf("%w: invalid DATABASE_URL: %w", apperrors.ErrConfiguration, err)
			}
			port := u.Port()
			if port == "" {
				port = "3306"
			}
			mc.Addr = net.JoinHostPort(u.Hostname(), port)
			mc.User = u.User.Username()
			mc.Passwd, _ = u.User.Password()
			mc.DBName = strings.TrimPrefix(u.Path, "/")
			return mc.FormatDSN(), nil
		}
		port := d.Port
		if port == 0 || port == 5432 {
			port = 3306
		}
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
		mc.User = d.User
		mc.Passwd = d.Password
		mc.DBName = d.Name
		return mc.FormatDSN(), nil
	case DriverSQLite:
		return d.Path, nil
	default:
		return "", fmt.Errorf("%w: unsupported DB_DRIVER %q", apperrors.ErrConfiguration, d.Driver)
	}
}

// Summary is the non-secret view of the configuration exposed by /config.
func (c *Config) Summary() map[string]interface{} {
	db := map[string]interface{}{
		"driver": c.Database.Driver,
	}
	if c.Database.Driver == DriverSQLite {
		db["path"] = c.Database.Path
	} else if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err == nil {
			db["host"] = u.Hostname()
			db["name"] = strings.TrimPrefix(u.Path, "/")
		}
	} else {
		db["host"] = c.Database.Host
		db["port"] = c.Database.Port
		db["name"] = c.Database.Name
	}

	return map[string]interface{}{
		"environment":         c.Environment,
		"base_url":            c.BaseURL,
		"upload_directory":    c.UploadDir,
		"thumbnail_directory": c.ThumbnailDir,
		"blob_backend":        c.BlobBackend,
		"strict_mime_types":   c.StrictMimeTypes,
		"max_upload_bytes":    c.MaxUploadBytes,
		"database":            db,
	}
}

// driverFromURL maps a connection URL scheme to a driver name, or "" when the
// scheme is not recognised.
func driverFromURL(raw string) string {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "mysql":
		return DriverMySQL
	case "postgres", "postgresql":
		return DriverPostgres
	default:
		return ""
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", apperrors.ErrConfiguration, key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", apperrors.ErrConfiguration, key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", apperrors.ErrConfiguration, key, err)
	}
	return d, nil
}
