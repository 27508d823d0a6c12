package loadgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/scores/internal/domain/types"
)

// ErrUnexpectedStatus is returned when the server answers with a status the
// client does not handle.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the scores HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health returns nil when /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Submit queues a sheet for import.
func (c *Client) Submit(ctx context.Context, name, content string) (types.ImportJob, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/scores/imports?source="+url.QueryEscape(name),
		"text/csv", strings.NewReader(content))
	if err != nil {
		return types.ImportJob{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
		var job types.ImportJob
		return job, decodeBody(resp, &job)
	default:
		return types.ImportJob{}, statusError(resp)
	}
}

// Job fetches the state of an import job.
func (c *Client) Job(ctx context.Context, id string) (types.ImportJob, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/scores/imports/"+url.PathEscape(id), "", nil)
	if err != nil {
		return types.ImportJob{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.ImportJob{}, statusError(resp)
	}
	var job types.ImportJob
	return job, decodeBody(resp, &job)
}

// Top fetches the current top scorers.
func (c *Client) Top(ctx context.Context) ([]types.Score, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/scores/top", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var top []types.Score
	return top, decodeBody(resp, &top)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeBody(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
}
