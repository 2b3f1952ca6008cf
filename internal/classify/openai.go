package classify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig configures the chat-completions classifier.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	Timeout      time.Duration
	MaxRetries   int
	HTTPClient   *http.Client
}

// OpenAI classifies batches with an OpenAI-compatible chat completions API
// in JSON response mode.
type OpenAI struct {
	client       openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	logger       *slog.Logger
}

// NewOpenAI creates an OpenAI classifier. Transport retries are delegated to the SDK.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
		logger:       logger.With("system", "classifier", "provider", "openai"),
	}
}

// Classify implements Classifier.
func (c *OpenAI) Classify(ctx context.Context, req Request) ([]ItemResult, error) {
	if len(req.Items) == 0 {
		return nil, nil
	}

	system, user, err := Compose(req, c.systemPrompt)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformed)
	}

	choice := resp.Choices[0]
	c.logger.Debug(
		"classification complete",
		"items", len(req.Items),
		"finish_reason", choice.FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	decoded, err := Decode(choice.Message.Content)
	if err != nil {
		return nil, err
	}
	logRejected(c.logger, decoded.Rejected)
	return decoded.Results, nil
}
