package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig configures the HTTP tracker client.
type ClientConfig struct {
	// BaseURL is the tracker service root, e.g. http://localhost:8181.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds each request (default: 5s).
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond paces calls to the tracker (default: 10).
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:           5 * time.Second,
		RequestsPerSecond: 10,
	}
}

// Client is an HTTP+JSON ExternalTracker implementation.
//
// Endpoints:
//
//	GET  {base}/health
//	POST {base}/projects            {"title": ...} -> {"id": ...}
//	PUT  {base}/tasks/{id}/status   {"status": ...}
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates an HTTP tracker client.
func NewClient(cfg *ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tracker base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}, nil
}

// HealthCheck reports whether the tracker answers 2xx on /health.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("tracker health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

type createProjectRequest struct {
	Title string `json:"title"`
}

type createProjectResponse struct {
	ID string `json:"id"`
}

// CreateProject registers a project and returns its id.
func (c *Client) CreateProject(ctx context.Context, title string) (string, error) {
	var out createProjectResponse
	err := c.doJSON(ctx, http.MethodPost, "/projects", createProjectRequest{Title: title}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus updates one task's lifecycle status.
func (c *Client) SetStatus(ctx context.Context, taskID int, status Status) error {
	path := fmt.Sprintf("/tasks/%d/status", taskID)
	return c.doJSON(ctx, http.MethodPut, path, setStatusRequest{Status: string(status)}, nil)
}

// doJSON issues one rate-limited JSON request and decodes the response
// into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tracker rate limit wait: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode tracker request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build tracker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("tracker returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode tracker response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}

	return nil
}
