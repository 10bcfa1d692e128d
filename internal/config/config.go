// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Storage backend selectors for the key-value store.
const (
	KVBackendSQLite   = "sqlite"
	KVBackendPostgres = "postgres"
	KVBackendRedis    = "redis"
	KVBackendMemory   = "memory"
)

// Image storage modes. Filesystem copies attachments into IMAGE_DIR; encoded
// re-encodes them into data-URI blobs inside the key-value store, for hosts
// without an addressable filesystem.
const (
	ImageModeFilesystem = "filesystem"
	ImageModeEncoded    = "encoded"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	KVBackend     string `mapstructure:"KV_BACKEND"`
	KVSQLitePath  string `mapstructure:"KV_SQLITE_PATH"`
	KVPostgresDSN string `mapstructure:"KV_POSTGRES_DSN"`
	RedisURL      string `mapstructure:"REDIS_URL"`

	ImageStorageMode     string `mapstructure:"IMAGE_STORAGE_MODE"`
	ImageDir             string `mapstructure:"IMAGE_DIR"`
	ImageSpoolDir        string `mapstructure:"IMAGE_SPOOL_DIR"`
	ImageMaxUploadSizeMB int    `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`
	EncodedImageMaxDim   int    `mapstructure:"ENCODED_IMAGE_MAX_DIM"`
}

// LoadConfig loads application configuration from file and environment
// variables. Additional config search paths may be passed in; the working
// directory is always consulted first.
func LoadConfig(paths ...string) (*Config, error) {
	viper.AddConfigPath(".")
	for _, p := range paths {
		viper.AddConfigPath(p)
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars and defaults cover everything.
	_ = viper.ReadInConfig()

	viper.SetDefault("PORT", "8390")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("KV_BACKEND", KVBackendSQLite)
	viper.SetDefault("KV_SQLITE_PATH", "pinkbook.db")
	viper.SetDefault("KV_POSTGRES_DSN", "")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("IMAGE_STORAGE_MODE", ImageModeFilesystem)
	viper.SetDefault("IMAGE_DIR", "images")
	viper.SetDefault("IMAGE_SPOOL_DIR", "")
	viper.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 10)
	viper.SetDefault("ENCODED_IMAGE_MAX_DIM", 1440)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.KVBackend {
	case KVBackendSQLite:
		if c.KVSQLitePath == "" {
			return errors.New("KV_SQLITE_PATH is required for the sqlite backend")
		}
	case KVBackendPostgres:
		if c.KVPostgresDSN == "" {
			return errors.New("KV_POSTGRES_DSN is required for the postgres backend")
		}
	case KVBackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	case KVBackendMemory:
		// Nothing to check; volatile by design.
	default:
		return fmt.Errorf("unknown KV_BACKEND %q", c.KVBackend)
	}

	switch c.ImageStorageMode {
	case ImageModeFilesystem:
		if c.ImageDir == "" {
			return errors.New("IMAGE_DIR is required for filesystem image storage")
		}
	case ImageModeEncoded:
		if c.EncodedImageMaxDim <= 0 {
			return errors.New("ENCODED_IMAGE_MAX_DIM must be positive")
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORAGE_MODE %q", c.ImageStorageMode)
	}

	if c.ImageMaxUploadSizeMB <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_SIZE_MB must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.KVBackend == KVBackendMemory {
			return errors.New("KV_BACKEND memory is not durable and cannot be used in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}
