package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
)

const (
	EnvScheduleEnabled = "VERBATIM_SCHEDULE_ENABLED"
	EnvScheduleSpec    = "VERBATIM_SCHEDULE_SPEC"
)

// ScheduleConfig controls periodic incremental analysis runs.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Spec    string `toml:"spec"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ScheduleConfig) Finalize() error {
	if c.Spec == "" {
		c.Spec = "@every 15m"
	}
	if v := os.Getenv(EnvScheduleEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvScheduleSpec); v != "" {
		c.Spec = v
	}

	if _, err := cron.ParseStandard(c.Spec); err != nil {
		return fmt.Errorf("invalid spec %q: %w", c.Spec, err)
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *ScheduleConfig) Merge(overlay *ScheduleConfig) {
	c.Enabled = overlay.Enabled
	if overlay.Spec != "" {
		c.Spec = overlay.Spec
	}
}
