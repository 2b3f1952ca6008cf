package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// HTTPConfig configures a classifier reached over a plain JSON endpoint.
type HTTPConfig struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	Attempts   uint
	Delay      time.Duration
	HTTPClient *http.Client
}

// HTTP posts the request as JSON to an endpoint that answers with the
// result array, either bare or wrapped under "results". Non-2xx responses
// fail the batch; 5xx and 429 responses are retried.
type HTTP struct {
	client   *http.Client
	endpoint string
	apiKey   string
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewHTTP creates an HTTP classifier.
func NewHTTP(cfg HTTPConfig, logger *slog.Logger) *HTTP {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTP{
		client:   client,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		attempts: max(cfg.Attempts, 1),
		delay:    cfg.Delay,
		logger:   logger.With("system", "classifier", "provider", "http"),
	}
}

// Classify implements Classifier.
func (c *HTTP) Classify(ctx context.Context, req Request) ([]ItemResult, error) {
	if len(req.Items) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	return retry.DoWithData(
		func() ([]ItemResult, error) {
			return c.post(ctx, body)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("classification attempt failed", "attempt", n+1, "error", err)
		}),
	)
}

func (c *HTTP) post(ctx context.Context, body []byte) ([]ItemResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(data))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, retry.Unrecoverable(err)
	}

	decoded, err := Decode(string(data))
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	logRejected(c.logger, decoded.Rejected)
	return decoded.Results, nil
}
