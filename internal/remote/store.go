// Package remote provides an HTTP client for accessing a remote leaddesk server.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides authenticated access to a leaddesk server's API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds configuration for creating a remote client.
type Config struct {
	URL           string
	APIKey        string
	AllowInsecure bool
	Timeout       time.Duration
}

// New creates a new remote client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote URL is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Enforce HTTPS unless AllowInsecure is set
	if parsedURL.Scheme == "http" && !cfg.AllowInsecure {
		return nil, fmt.Errorf("HTTPS required for remote connections\n\n" +
			"Options:\n" +
			"  1. Use HTTPS: [remote] url = \"https://crm-host:8080\"\n" +
			"  2. For trusted networks: add 'allow_insecure = true' to [remote] in config.toml")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return nil, fmt.Errorf("remote URL must include a host (e.g., https://crm-host:8080)")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Close is a no-op for HTTP client.
func (c *Client) Close() error {
	return nil
}

// doRequest performs an authenticated HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// getJSON issues a request and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleErrorResponse reads an error response and returns an appropriate error.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
	}

	return fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// ScheduledExportStatus describes one scheduled export on the server.
type ScheduledExportStatus struct {
	Name     string `json:"name"`
	View     string `json:"view"`
	Schedule string `json:"schedule"`
	Running  bool   `json:"running"`
	LastRun  string `json:"lastRun,omitempty"`
	NextRun  string `json:"nextRun,omitempty"`
	LastFile string `json:"lastFile,omitempty"`
	LastErr  string `json:"lastError,omitempty"`
}

type exportsStatusResponse struct {
	Running bool                    `json:"running"`
	Exports []ScheduledExportStatus `json:"exports"`
}

// ScheduledExports fetches scheduled export status from the server.
func (c *Client) ScheduledExports(ctx context.Context) ([]ScheduledExportStatus, error) {
	var resp exportsStatusResponse
	if err := c.getJSON(ctx, http.MethodGet, "/api/v1/exports/status", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Exports, nil
}

// TriggerExport asks the server to run a scheduled export now.
func (c *Client) TriggerExport(ctx context.Context, name string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/exports/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp)
	}
	return nil
}
