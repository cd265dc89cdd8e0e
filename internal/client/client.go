// Package client is the HTTP client for the render service, used by the CLI
// commands. It mirrors the server's control surface and decodes coded error
// bodies into [APIError] values the commands can inspect.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rlei-miris/kit-render-service/pkg/httputil"
	"github.com/rlei-miris/kit-render-service/pkg/jobstore"
	"github.com/rlei-miris/kit-render-service/pkg/render"
)

// APIError is a coded failure returned by the service.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retry policy for idempotent calls. Tests shorten the delay.
var (
	retryAttempts = 3
	retryDelay    = time.Second
)

// Client talks to one render service instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL (e.g. "http://localhost:8011").
// The client carries no request timeout of its own; callers bound individual
// calls through their context, since a render legitimately blocks for minutes.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

type ackResponse struct {
	Message string `json:"message"`
}

// OpenStage loads the scene file at path as the service's active stage.
// Transient failures are retried; opening a stage is idempotent.
func (c *Client) OpenStage(ctx context.Context, path string) (string, error) {
	var ack ackResponse
	err := httputil.Retry(ctx, retryAttempts, retryDelay, func() error {
		return c.post(ctx, "/open_stage", map[string]string{"usd_file_location": path}, &ack)
	})
	return ack.Message, err
}

// SetRenderer selects the renderer mode using its wire value
// ("interactive" or "realtime"). Idempotent, retried on transient failures.
func (c *Client) SetRenderer(ctx context.Context, renderer string) (string, error) {
	var ack ackResponse
	err := httputil.Retry(ctx, retryAttempts, retryDelay, func() error {
		return c.post(ctx, "/set_renderer", map[string]string{"renderer": renderer}, &ack)
	})
	return ack.Message, err
}

// Render submits one render job and blocks until the service responds.
// Render is not retried: a job is not idempotent and a failed submission is
// surfaced to the caller as-is.
func (c *Client) Render(ctx context.Context, req render.Request) (*render.Response, error) {
	var resp render.Response
	if err := c.post(ctx, "/render", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs fetches recent job records, newest first.
func (c *Client) ListJobs(ctx context.Context) ([]jobstore.Record, error) {
	var records []jobstore.Record
	err := httputil.Retry(ctx, retryAttempts, retryDelay, func() error {
		return c.get(ctx, "/jobs", &records)
	})
	return records, err
}

// GetJob fetches one job record by id.
func (c *Client) GetJob(ctx context.Context, id string) (*jobstore.Record, error) {
	var rec jobstore.Record
	err := httputil.Retry(ctx, retryAttempts, retryDelay, func() error {
		return c.get(ctx, "/jobs/"+id, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Health probes the service.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/healthz", &map[string]string{})
}

func (c *Client) post(ctx context.Context, path string, body, v any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &httputil.RetryableError{Err: fmt.Errorf("contact render service: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if derr := json.NewDecoder(resp.Body).Decode(apiErr); derr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		if httputil.RetryableStatus(resp.StatusCode) {
			return &httputil.RetryableError{Err: apiErr}
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
