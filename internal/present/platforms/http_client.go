package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError carries the HTTP status of a rejected push.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push failed with status %d", e.Status)
}

type HTTPClient struct {
	inner *http.Client
}

func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{inner: &http.Client{Timeout: timeout}}
}

// WithTransport swaps the round tripper, keeping the timeout.
func (c *HTTPClient) WithTransport(rt http.RoundTripper) *HTTPClient {
	return &HTTPClient{inner: &http.Client{Timeout: c.inner.Timeout, Transport: rt}}
}

func (c *HTTPClient) PostJSON(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, endpoint, body)
}

func (c *HTTPClient) PatchJSON(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPatch, endpoint, body)
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return respBody, &StatusError{Status: resp.StatusCode}
	}
	return respBody, nil
}
