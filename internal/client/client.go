// Package client calls the verbatim HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/verbatim/internal/analyses"
	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/jobs"
	"github.com/JaimeStill/verbatim/pkg/pagination"
)

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an API error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is an HTTP client for the verbatim API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client rooted at baseURL, including the API base path
// (e.g. "http://localhost:8080/api").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Start(ctx context.Context, scope catalog.Scope) (*jobs.Job, error) {
	var job jobs.Job
	if err := c.do(ctx, http.MethodPost, scopePath(scope, "start"), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) Stop(ctx context.Context, scope catalog.Scope) (*jobs.Job, error) {
	var job jobs.Job
	if err := c.do(ctx, http.MethodPost, scopePath(scope, "stop"), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) Reset(ctx context.Context, scope catalog.Scope) (*jobs.ResetResult, error) {
	var result jobs.ResetResult
	if err := c.do(ctx, http.MethodPost, scopePath(scope, "reset"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Progress(ctx context.Context, scope catalog.Scope) (*jobs.Progress, error) {
	var p jobs.Progress
	if err := c.do(ctx, http.MethodGet, scopePath(scope, "progress"), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Watch polls the scope's progress every interval, passing each snapshot to
// fn, until the job reaches a terminal status or ctx ends.
func (c *Client) Watch(ctx context.Context, scope catalog.Scope, interval time.Duration, fn func(*jobs.Progress)) (*jobs.Progress, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p, err := c.Progress(ctx, scope)
		if err != nil {
			return nil, err
		}
		fn(p)

		if p.Status.Terminal() {
			return p, nil
		}

		select {
		case <-ctx.Done():
			return p, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Jobs lists jobs, optionally filtered by unit and status.
func (c *Client) Jobs(ctx context.Context, unitID *uuid.UUID, status string, page int) (*pagination.PageResult[jobs.Job], error) {
	q := url.Values{}
	if unitID != nil {
		q.Set("unit_id", unitID.String())
	}
	if status != "" {
		q.Set("status", status)
	}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}

	path := "/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result pagination.PageResult[jobs.Job]
	if err := c.do(ctx, http.MethodGet, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Job(ctx context.Context, id uuid.UUID) (*jobs.Job, error) {
	var job jobs.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+id.String(), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Summary returns aggregate counts of the scope's analyses.
func (c *Client) Summary(ctx context.Context, scope catalog.Scope) (*analyses.Summary, error) {
	q := url.Values{"unit_id": {scope.UnitID.String()}}
	if scope.SurveyID != nil {
		q.Set("survey_id", scope.SurveyID.String())
	}

	var summary analyses.Summary
	if err := c.do(ctx, http.MethodGet, "/analyses/summary?"+q.Encode(), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func scopePath(scope catalog.Scope, action string) string {
	path := "/analysis/" + scope.UnitID.String() + "/" + action
	if scope.SurveyID != nil {
		path += "?survey_id=" + scope.SurveyID.String()
	}
	return path
}

func (c *Client) do(ctx context.Context, method, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		message := string(bytes.TrimSpace(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &Error{Status: resp.StatusCode, Message: message}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
