// Package httpx is a small JSON-over-HTTP client for external price APIs.
// Requests are attempted exactly once; callers decide what a failure means.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	clierr "github.com/ggonzalez94/eth-trading-mcp/internal/errors"
	"github.com/ggonzalez94/eth-trading-mcp/internal/version"
)

const maxBodyBytes = 4 << 20

type Client struct {
	httpClient *http.Client
	userAgent  string
}

func New(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  version.CLIName + "/" + version.CLIVersion,
	}
}

// GetJSON issues a GET request and decodes the JSON response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "build request", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.DoJSON(req, out)
}

func (c *Client) DoJSON(req *http.Request, out any) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapNetError(err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return clierr.Wrap(clierr.CodeNetwork, "read provider response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return clierr.New(clierr.CodeNetwork, "provider rate limited request")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return clierr.New(clierr.CodeNetwork, "provider authentication failed")
	case resp.StatusCode >= http.StatusInternalServerError:
		return clierr.New(clierr.CodeNetwork, fmt.Sprintf("provider unavailable (status %d)", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return clierr.New(clierr.CodeNetwork, fmt.Sprintf("provider returned unexpected status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return clierr.New(clierr.CodeNetwork, "provider returned empty response")
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return clierr.Wrap(clierr.CodeNetwork, "decode provider JSON", err)
	}
	return nil
}

func mapNetError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return clierr.Wrap(clierr.CodeNetwork, "provider timeout", err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return clierr.Wrap(clierr.CodeNetwork, "provider timeout", err)
	}
	return clierr.Wrap(clierr.CodeNetwork, "provider request failed", err)
}
