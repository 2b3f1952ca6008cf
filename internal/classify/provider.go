package classify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/verbatim/internal/config"
)

// FromConfig builds the Classifier selected by cfg.Provider.
func FromConfig(cfg *config.ClassifierConfig, logger *slog.Logger) (Classifier, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			BaseURL:      cfg.BaseURL,
			SystemPrompt: cfg.SystemPrompt,
			Timeout:      cfg.TimeoutDuration(),
			MaxRetries:   cfg.MaxRetries,
		}, logger), nil
	case config.ProviderHTTP:
		return NewHTTP(HTTPConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.TimeoutDuration(),
			Attempts: uint(cfg.MaxRetries + 1),
			Delay:    time.Second,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider: %q", cfg.Provider)
	}
}
