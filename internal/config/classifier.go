package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvClassifierProvider     = "VERBATIM_CLASSIFIER_PROVIDER"
	EnvClassifierModel        = "VERBATIM_CLASSIFIER_MODEL"
	EnvClassifierBaseURL      = "VERBATIM_CLASSIFIER_BASE_URL"
	EnvClassifierAPIKey       = "VERBATIM_CLASSIFIER_API_KEY"
	EnvClassifierEndpoint     = "VERBATIM_CLASSIFIER_ENDPOINT"
	EnvClassifierTimeout      = "VERBATIM_CLASSIFIER_TIMEOUT"
	EnvClassifierMaxRetries   = "VERBATIM_CLASSIFIER_MAX_RETRIES"
	EnvClassifierSystemPrompt = "VERBATIM_CLASSIFIER_SYSTEM_PROMPT"
)

// Classifier providers.
const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

// ClassifierConfig selects and configures the external classification service.
type ClassifierConfig struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	Endpoint     string `toml:"endpoint"`
	Timeout      string `toml:"timeout"`
	MaxRetries   int    `toml:"max_retries"`
	SystemPrompt string `toml:"system_prompt"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ClassifierConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.SystemPrompt != "" {
		c.SystemPrompt = overlay.SystemPrompt
	}
}

func (c *ClassifierConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
}

func (c *ClassifierConfig) loadEnv() {
	if v := os.Getenv(EnvClassifierProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvClassifierModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvClassifierBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvClassifierAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvClassifierEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvClassifierTimeout); v != "" {
		c.Timeout = v
	}
	envInt(&c.MaxRetries, EnvClassifierMaxRetries)
	if v := os.Getenv(EnvClassifierSystemPrompt); v != "" {
		c.SystemPrompt = v
	}
}

func (c *ClassifierConfig) validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.Model == "" {
			return fmt.Errorf("model required for provider %s", c.Provider)
		}
	case ProviderHTTP:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint required for provider %s", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return nil
}
