package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"SESSION_TRACKER_ENV" env-default:"local"`
	LockFile string         `yaml:"lock_file" env:"SESSION_TRACKER_LOCK" env-default:"./session-tracker.lock"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Tracking TrackingConfig `yaml:"tracking"`
	Tray     TrayConfig     `yaml:"tray"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	Path        string `yaml:"path" env:"STORAGE_PATH" env-default:"./session-tracker.db"`
	RedisURL    string `yaml:"redis_url" env:"REDIS_URL"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	KeyPrefix   string `yaml:"key_prefix" env:"STORAGE_KEY_PREFIX" env-default:"session-tracker:"`
}

type ServerConfig struct {
	Enabled      bool `yaml:"enabled" env:"SERVER_ENABLED" env-default:"true"`
	Port         int  `yaml:"port" env:"SERVER_PORT" env-default:"8787"`
	ReadTimeout  int  `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15"`   // seconds
	WriteTimeout int  `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15"` // seconds
	IdleTimeout  int  `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60"`   // seconds
}

type TrackingConfig struct {
	FlushInterval          int `yaml:"flush_interval" env:"TRACKING_FLUSH_INTERVAL" env-default:"60"`              // seconds
	BlockedReminderSeconds int `yaml:"blocked_reminder_interval" env:"TRACKING_BLOCKED_REMINDER" env-default:"10"` // seconds
	HistoryLimit           int `yaml:"history_limit" env:"TRACKING_HISTORY_LIMIT" env-default:"1000"`              // sessions
	PruneInterval          int `yaml:"prune_interval" env:"TRACKING_PRUNE_INTERVAL" env-default:"24"`              // hours
}

type TrayConfig struct {
	Enabled    bool   `yaml:"enabled" env:"TRAY_ENABLED" env-default:"false"`
	OptionsURL string `yaml:"options_url" env:"TRAY_OPTIONS_URL"`
}

// LoadConfig reads the YAML file at path, applying environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the agent cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	case DriverRedis:
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for the redis driver")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Tracking.FlushInterval <= 0 {
		return fmt.Errorf("tracking.flush_interval must be positive")
	}
	if c.Tracking.HistoryLimit <= 0 {
		return fmt.Errorf("tracking.history_limit must be positive")
	}
	return nil
}
