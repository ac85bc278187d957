package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError carries a non-200 answer from the server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client 调用开发服务器上的适配器命令
type Client struct {
	*Options
}

func NewClient(opts ...Option) *Client {
	return &Client{
		Options: NewOptions(opts...),
	}
}

// Call runs command on the server. docs are the command's input documents,
// sent newline separated.
func (c *Client) Call(ctx context.Context, command string, docs ...[]byte) ([]byte, error) {
	prefix := "/api/"
	if c.Debug {
		prefix = "/_/api/"
	}
	body := bytes.Join(docs, []byte("\n"))
	return c.Do(ctx, http.MethodPost, prefix+url.PathEscape(command), body)
}

// Meta fetches the server description.
func (c *Client) Meta(ctx context.Context) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, "/meta", nil)
}

// Do sends a request and returns the body of a 200 answer.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	timeout := c.DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("client: request timeout")
		}
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
