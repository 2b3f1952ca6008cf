// Package config loads and finalizes the service configuration from
// config.toml, an optional environment overlay, and VERBATIM_* variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/verbatim/pkg/database"
	"github.com/JaimeStill/verbatim/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVerbatimEnv             = "VERBATIM_ENV"
	EnvVerbatimShutdownTimeout = "VERBATIM_SHUTDOWN_TIMEOUT"
	EnvVerbatimVersion         = "VERBATIM_VERSION"
	EnvVerbatimLogLevel        = "VERBATIM_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	Host:            "VERBATIM_DB_HOST",
	Port:            "VERBATIM_DB_PORT",
	Name:            "VERBATIM_DB_NAME",
	User:            "VERBATIM_DB_USER",
	Password:        "VERBATIM_DB_PASSWORD",
	SSLMode:         "VERBATIM_DB_SSL_MODE",
	MaxOpenConns:    "VERBATIM_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERBATIM_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERBATIM_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERBATIM_DB_CONN_TIMEOUT",
	PingAttempts:    "VERBATIM_DB_PING_ATTEMPTS",
	PingDelay:       "VERBATIM_DB_PING_DELAY",
}

var storageEnv = &storage.Env{
	Enabled:          "VERBATIM_STORAGE_ENABLED",
	ContainerName:    "VERBATIM_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERBATIM_STORAGE_CONNECTION_STRING",
	Prefix:           "VERBATIM_STORAGE_PREFIX",
}

// Config is the root configuration for the verbatim service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Engine          EngineConfig     `toml:"engine"`
	Classifier      ClassifierConfig `toml:"classifier"`
	Schedule        ScheduleConfig   `toml:"schedule"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	LogLevel        string           `toml:"log_level"`
	Version         string           `toml:"version"`
}

// Env returns the VERBATIM_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVerbatimEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load rooted at dir.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{}

	base := filepath.Join(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Engine.Merge(&overlay.Engine)
	c.Classifier.Merge(&overlay.Classifier)
	c.Schedule.Merge(&overlay.Schedule)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"engine", c.Engine.Finalize},
		{"classifier", c.Classifier.Finalize},
		{"schedule", c.Schedule.Finalize},
	}

	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVerbatimShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVerbatimLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvVerbatimVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvVerbatimEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
