package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	// Per-client token bucket applied to every /api route.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

// DatabaseConfig selects the Directory Store backend and holds PostgreSQL
// connection settings.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // "postgres" or "memory"
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	MaxOpenConn int    `yaml:"max_open_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// StorageConfig contains artifact storage settings
type StorageConfig struct {
	Type         string   `yaml:"type"`       // "fs" or "s3"
	UploadDir    string   `yaml:"upload_dir"` // fs only
	BaseURL      string   `yaml:"base_url"`   // prefix of returned artifact URLs
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
	S3           S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"` // for S3-compatible stores
	Prefix       string `yaml:"prefix"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// EmailConfig contains SendGrid settings. With no API key, notifications are
// only logged.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	InvoiceReminders string `yaml:"invoice_reminders"`
	// Invoices overdue by less than this many days are not reminded yet.
	ReminderGraceDays int `yaml:"reminder_grace_days"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, when present, is loaded first so that its values act as
// environment overrides. An empty configPath starts from defaults.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}
	if val := os.Getenv("S3_BUCKET"); val != "" {
		c.Storage.S3.Bucket = val
	}
	if val := os.Getenv("S3_REGION"); val != "" {
		c.Storage.S3.Region = val
	}
	if val := os.Getenv("S3_ENDPOINT"); val != "" {
		c.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("S3_ACCESS_KEY"); val != "" {
		c.Storage.S3.AccessKey = val
	}
	if val := os.Getenv("S3_SECRET_KEY"); val != "" {
		c.Storage.S3.SecretKey = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.RateLimitPerSecond == 0 {
		c.Server.RateLimitPerSecond = 20
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 40
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "estatehub"
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "fs"
	}
	switch c.Storage.Type {
	case "fs":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 10
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	}

	if c.Email.SendGridAPIKey != "" && c.Email.FromAddress == "" {
		return fmt.Errorf("email from address is required when SendGrid is enabled")
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "EstateHub"
	}

	if c.Scheduler.InvoiceReminders == "" {
		c.Scheduler.InvoiceReminders = "0 0 8 * * *" // Daily at 8 AM UTC
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

// MaxUploadBytes is the per-file upload ceiling.
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxFileSize * 1024 * 1024
}
