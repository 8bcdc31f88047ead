package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client issues bare POST requests against a load-test target.
//
// Connections are never reused: every call dials a fresh connection and the
// connection is closed once the response body has been drained.
type Client struct {
	httpClient *http.Client
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		},
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	return client
}

// WithTimeout sets a per-call timeout. Zero leaves the transport default in place.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// Post sends an empty-body POST to url and drains the response body.
//
// When the status line arrived but the body could not be drained, Post
// returns both the Response and the drain error.
func (c *Client) Post(ctx context.Context, url string) (*Response, error) {
	return c.post(ctx, url, io.Discard)
}

// PostCapture is Post but keeps the response body in Response.Body. A body
// that cannot be read in full is an error with no Response.
func (c *Client) PostCapture(ctx context.Context, url string) (*Response, error) {
	var body bytes.Buffer
	resp, err := c.post(ctx, url, &body)
	if err != nil {
		return nil, err
	}
	resp.Body = body.Bytes()
	return resp, nil
}

func (c *Client) post(ctx context.Context, url string, sink io.Writer) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	// The body has to be consumed so the connection can close cleanly.
	n, err := io.Copy(sink, httpResp.Body)
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		BytesRead:  n,
		Duration:   time.Since(start),
	}
	if err != nil {
		return resp, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, nil
}
