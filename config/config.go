package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Matching  MatchingConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
}

// DatabaseConfig holds the sqlite location
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds listing cache configuration
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// MatchingConfig holds fuzzy lookup configuration
type MatchingConfig struct {
	DefaultLimit       int  `mapstructure:"default_limit"`
	MaxLimit           int  `mapstructure:"max_limit"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per second
	Burst int `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cleservice/")

	// Environment variable settings
	v.SetEnvPrefix("CLESERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports the variables of ./.env that are not already set.
// A missing file is not an error.
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_mb", 10)

	// Database defaults
	v.SetDefault("database.path", "./data/cleservice.db")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "5s")
	v.SetDefault("cache.max_entries", 100)

	// Matching defaults
	v.SetDefault("matching.default_limit", 5)
	v.SetDefault("matching.max_limit", 50)
	v.SetDefault("matching.enable_debug_logging", false)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 10)
	v.SetDefault("ratelimit.burst", 20)
}

// validate validates the configuration
func validate(config *Config) error {
	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("database path is required (set CLESERVICE_DATABASE_PATH)")
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got: %d", config.Server.MaxUploadMB)
	}

	if config.Cache.Enabled {
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("cache TTL must be positive when cache is enabled, got: %s", config.Cache.TTL)
		}
		if config.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache max entries must be positive when cache is enabled, got: %d", config.Cache.MaxEntries)
		}
	}

	if config.Matching.DefaultLimit <= 0 || config.Matching.MaxLimit <= 0 {
		return fmt.Errorf("matching limits must be positive, got default %d and max %d",
			config.Matching.DefaultLimit, config.Matching.MaxLimit)
	}
	if config.Matching.DefaultLimit > config.Matching.MaxLimit {
		return fmt.Errorf("matching default limit %d exceeds max limit %d",
			config.Matching.DefaultLimit, config.Matching.MaxLimit)
	}

	if config.RateLimit.PerIP <= 0 || config.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limits must be positive, got per_ip %d and burst %d",
			config.RateLimit.PerIP, config.RateLimit.Burst)
	}

	return nil
}
