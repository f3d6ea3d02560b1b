// Package pactclient is a thin HTTP client for exercising a running
// mock server from tests: it knows only how to wait for a port to
// accept connections and issue a request against it.
package pactclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Client issues requests against a mock server bound on Port.
type Client struct {
	Host string
	Port int

	HTTPClient *http.Client
}

// New returns a Client targeting host:port, defaulting Host to
// 127.0.0.1 and using http.DefaultClient's timeout policy.
func New(port int) *Client {
	return &Client{Host: "127.0.0.1", Port: port, HTTPClient: &http.Client{}}
}

func (c *Client) baseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// WaitUntilReady polls the port with raw TCP dials until one succeeds
// or ctx is done, for use right after mockserver.New returns (the
// listener is already bound by then, but callers running against a
// separately-launched process may still need this).
func (c *Client) WaitUntilReady(ctx context.Context) error {
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("pactclient: %s never became ready: %w", addr, ctx.Err())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Do issues method/path with an optional body and content type,
// returning the status code, response headers, and body bytes.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("pactclient: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("pactclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	got, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("pactclient: read response body: %w", err)
	}
	return resp.StatusCode, resp.Header, got, nil
}
