package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/verbatim/pkg/middleware"
	"github.com/JaimeStill/verbatim/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VERBATIM_CORS_ENABLED",
	Origins:          "VERBATIM_CORS_ORIGINS",
	AllowedMethods:   "VERBATIM_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VERBATIM_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "VERBATIM_CORS_EXPOSED_HEADERS",
	AllowCredentials: "VERBATIM_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VERBATIM_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "VERBATIM_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "VERBATIM_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if v := os.Getenv("VERBATIM_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
