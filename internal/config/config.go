package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `json:"app"`
	Storage  StorageConfig  `json:"storage"`
	Stamp    StampConfig    `json:"stamp"`
	Issuer   IssuerConfig   `json:"issuer"`
	Signing  SigningConfig  `json:"signing"`
	Expiry   ExpiryConfig   `json:"expiry"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
}

// AppConfig holds public URLs and local paths
type AppConfig struct {
	PublicURL string `json:"public_url"`
	UploadDir string `json:"upload_dir"`
	TimeZone  string `json:"time_zone"`
}

// StorageConfig represents S3 configuration
type StorageConfig struct {
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"`
	// Enabled overrides the default of enabling object storage when both
	// an access key and a bucket are set.
	Enabled *bool `json:"enabled,omitempty"`
}

// ObjectStorageEnabled reports whether signed files go to S3.
func (c *StorageConfig) ObjectStorageEnabled() bool {
	if c.Enabled != nil {
		return *c.Enabled && c.Bucket != ""
	}
	return c.AccessKeyID != "" && c.Bucket != ""
}

// StampConfig locates the stamp fonts. An empty FontsDir selects the
// built-in fonts.
type StampConfig struct {
	FontsDir    string `json:"fonts_dir"`
	RegularFont string `json:"regular_font"`
	BoldFont    string `json:"bold_font"`
}

// IssuerConfig describes the legal entity printed in the stamp
type IssuerConfig struct {
	Name     string `json:"name"`
	BIN      string `json:"bin"`
	Phone    string `json:"phone"`
	Platform string `json:"platform"`
}

// SigningConfig
type SigningConfig struct {
	// RequireVisualStamp fails signing when the stamp cannot be produced.
	RequireVisualStamp bool `json:"require_visual_stamp"`
}

// ExpiryConfig schedules the sweep that expires overdue requests
type ExpiryConfig struct {
	// Schedule is a cron expression or descriptor such as "@every 5m".
	Schedule string `json:"schedule"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or console
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		App: AppConfig{
			PublicURL: "http://localhost:3000",
			UploadDir: "uploads",
			TimeZone:  "Asia/Almaty",
		},
		Storage: StorageConfig{
			Region: "us-east-1",
		},
		Stamp: StampConfig{
			RegularFont: "Roboto-Regular.ttf",
			BoldFont:    "Roboto-Bold.ttf",
		},
		Issuer: IssuerConfig{
			Name:     `ТОО "961"`,
			BIN:      "211040031441",
			Phone:    "+7 707 798 3316",
			Platform: "961.kz",
		},
		Expiry: ExpiryConfig{
			Schedule: "@every 5m",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "contract961",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from .env, the file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := Default()

	// Load from file if exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	if _, err := config.Location(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) {
	setString(&config.App.PublicURL, "PUBLIC_URL")
	setString(&config.App.UploadDir, "UPLOAD_DIR")
	setString(&config.App.TimeZone, "TIMEZONE")

	setString(&config.Storage.Region, "AWS_REGION")
	setString(&config.Storage.Bucket, "AWS_S3_BUCKET")
	setString(&config.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&config.Storage.Endpoint, "AWS_S3_ENDPOINT")
	if v := os.Getenv("S3_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Storage.Enabled = &b
		}
	}

	setString(&config.Stamp.FontsDir, "FONTS_DIR")

	setString(&config.Issuer.Name, "ISSUER_NAME")
	setString(&config.Issuer.BIN, "ISSUER_BIN")
	setString(&config.Issuer.Phone, "ISSUER_PHONE")
	setString(&config.Issuer.Platform, "ISSUER_PLATFORM")

	if v := os.Getenv("REQUIRE_VISUAL_STAMP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Signing.RequireVisualStamp = b
		}
	}

	setString(&config.Expiry.Schedule, "EXPIRY_SCHEDULE")

	setString(&config.Database.Host, "DATABASE_HOST")
	if port := os.Getenv("DATABASE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Location resolves the time zone used for dates printed in the stamp
func (c *Config) Location() (*time.Location, error) {
	if c.App.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.App.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.App.TimeZone, err)
	}
	return loc, nil
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
