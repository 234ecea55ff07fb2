package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SyncModeHTTP = "http"
	SyncModeNATS = "nats"
	SyncModeNone = "none"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`

	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMaxConnLife   time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	DBMaxConnIdle   time.Duration `mapstructure:"DB_MAX_CONN_IDLE"`
	DBAutoMigrate   bool          `mapstructure:"DB_AUTO_MIGRATE"`
	TimeZone        string        `mapstructure:"TIME_ZONE"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	SyncMode    string        `mapstructure:"SYNC_MODE"`
	SyncBaseURL string        `mapstructure:"SYNC_BASE_URL"`
	SyncTimeout time.Duration `mapstructure:"SYNC_TIMEOUT"`
	NATSURL     string        `mapstructure:"NATS_URL"`
	SyncSubject string        `mapstructure:"SYNC_SUBJECT"`

	// LegacyFoundStatus answers a successful GET /houses/{id} with 302, the
	// status existing clients expect.
	LegacyFoundStatus bool `mapstructure:"LEGACY_FOUND_STATUS"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"SERVICE_NAME":         "rental",
	"HTTP_ADDR":            ":8080",
	"DATABASE_URL":         "",
	"DB_MAX_CONNS":         16,
	"DB_MAX_CONN_LIFETIME": "30m",
	"DB_MAX_CONN_IDLE":     "5m",
	"DB_AUTO_MIGRATE":      false,
	"TIME_ZONE":            "UTC",
	"SHUTDOWN_TIMEOUT":     "15s",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"CACHE_TTL":            "10m",
	"SYNC_MODE":            SyncModeHTTP,
	"SYNC_BASE_URL":        "http://localhost:9090",
	"SYNC_TIMEOUT":         "5s",
	"NATS_URL":             "nats://localhost:4222",
	"SYNC_SUBJECT":         "houses.house",
	"LEGACY_FOUND_STATUS":  true,
	"LOG_LEVEL":            "info",
	"LOG_FORMAT":           "json",
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.SyncMode = strings.ToLower(strings.TrimSpace(cfg.SyncMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.SyncMode {
	case SyncModeHTTP:
		if c.SyncBaseURL == "" {
			return errors.New("config: SYNC_BASE_URL is required when SYNC_MODE=http")
		}
	case SyncModeNATS:
		if c.NATSURL == "" || c.SyncSubject == "" {
			return errors.New("config: NATS_URL and SYNC_SUBJECT are required when SYNC_MODE=nats")
		}
	case SyncModeNone:
	default:
		return fmt.Errorf("config: unknown SYNC_MODE %q", c.SyncMode)
	}
	if c.SyncTimeout <= 0 {
		return errors.New("config: SYNC_TIMEOUT must be positive")
	}
	return nil
}

// Location resolves TimeZone, the zone wall-clock listing times are kept in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("config: TIME_ZONE: %w", err)
	}
	return loc, nil
}
