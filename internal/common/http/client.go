// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

// Client wraps the standard client with a per-client timeout and a default
// User-Agent, so every outbound request identifies the agent consistently.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithUserAgent(timeout, "")
}

func NewClientWithUserAgent(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// DoWithContext sends the request bound to ctx. The default User-Agent is
// applied only when the request does not set its own.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}
