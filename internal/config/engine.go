package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEngineBatchSize     = "VERBATIM_ENGINE_BATCH_SIZE"
	EnvEngineMaxBatchSize  = "VERBATIM_ENGINE_MAX_BATCH_SIZE"
	EnvEngineBatchDelay    = "VERBATIM_ENGINE_BATCH_DELAY"
	EnvEngineLogSize       = "VERBATIM_ENGINE_LOG_SIZE"
	EnvEngineResetPageSize = "VERBATIM_ENGINE_RESET_PAGE_SIZE"
	EnvEngineFetchAttempts = "VERBATIM_ENGINE_FETCH_ATTEMPTS"
	EnvEngineFetchDelay    = "VERBATIM_ENGINE_FETCH_DELAY"
)

// EngineConfig holds batch analysis engine settings.
type EngineConfig struct {
	BatchSize     int    `toml:"batch_size"`
	MaxBatchSize  int    `toml:"max_batch_size"`
	BatchDelay    string `toml:"batch_delay"`
	LogSize       int    `toml:"log_size"`
	ResetPageSize int    `toml:"reset_page_size"`
	FetchAttempts int    `toml:"fetch_attempts"`
	FetchDelay    string `toml:"fetch_delay"`
}

// BatchDelayDuration returns BatchDelay as a time.Duration.
func (c *EngineConfig) BatchDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BatchDelay)
	return d
}

// FetchDelayDuration returns FetchDelay as a time.Duration.
func (c *EngineConfig) FetchDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchDelay)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EngineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EngineConfig) Merge(overlay *EngineConfig) {
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
	if overlay.BatchDelay != "" {
		c.BatchDelay = overlay.BatchDelay
	}
	if overlay.LogSize != 0 {
		c.LogSize = overlay.LogSize
	}
	if overlay.ResetPageSize != 0 {
		c.ResetPageSize = overlay.ResetPageSize
	}
	if overlay.FetchAttempts != 0 {
		c.FetchAttempts = overlay.FetchAttempts
	}
	if overlay.FetchDelay != "" {
		c.FetchDelay = overlay.FetchDelay
	}
}

func (c *EngineConfig) loadDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 25
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 50
	}
	if c.BatchDelay == "" {
		c.BatchDelay = "500ms"
	}
	if c.LogSize == 0 {
		c.LogSize = 50
	}
	if c.ResetPageSize == 0 {
		c.ResetPageSize = 200
	}
	if c.FetchAttempts == 0 {
		c.FetchAttempts = 3
	}
	if c.FetchDelay == "" {
		c.FetchDelay = "1s"
	}
}

func (c *EngineConfig) loadEnv() {
	envInt(&c.BatchSize, EnvEngineBatchSize)
	envInt(&c.MaxBatchSize, EnvEngineMaxBatchSize)
	if v := os.Getenv(EnvEngineBatchDelay); v != "" {
		c.BatchDelay = v
	}
	envInt(&c.LogSize, EnvEngineLogSize)
	envInt(&c.ResetPageSize, EnvEngineResetPageSize)
	envInt(&c.FetchAttempts, EnvEngineFetchAttempts)
	if v := os.Getenv(EnvEngineFetchDelay); v != "" {
		c.FetchDelay = v
	}
}

func (c *EngineConfig) validate() error {
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	if c.BatchSize < 1 || c.BatchSize > c.MaxBatchSize {
		return fmt.Errorf("batch_size must be between 1 and max_batch_size (%d)", c.MaxBatchSize)
	}
	if c.LogSize < 1 {
		return fmt.Errorf("log_size must be positive")
	}
	if c.ResetPageSize < 1 {
		return fmt.Errorf("reset_page_size must be positive")
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("fetch_attempts must be positive")
	}
	if d, err := time.ParseDuration(c.BatchDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid batch_delay: %q", c.BatchDelay)
	}
	if _, err := time.ParseDuration(c.FetchDelay); err != nil {
		return fmt.Errorf("invalid fetch_delay: %w", err)
	}
	return nil
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
