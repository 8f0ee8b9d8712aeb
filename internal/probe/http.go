package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient wraps http.Client with the probe's authorization header.
type HTTPClient struct {
	client *http.Client
	token  string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration, token string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		token:  token,
	}
}

// Do performs a request and returns status and body.
func (c *HTTPClient) Do(ctx context.Context, method, url, body string) (int, []byte, error) {
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
