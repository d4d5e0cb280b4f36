// Package api provides the HTTP transport used by the storefront client
// engines. It attaches the current bearer credential to every request,
// decodes JSON bodies, and converts authorization rejections into a
// single side-effect via the on-unauthorized hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the server rejects the current credential.
// The on-unauthorized hook has already fired by the time a caller sees it.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError carries a non-2xx response status and the server's message.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int
	// Message is the server-provided error message, if any.
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Code)
}

// Client issues JSON requests against the storefront API.
type Client struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// HTTPClient performs the requests; http.DefaultClient if nil.
	HTTPClient *http.Client
	// Token returns the current bearer credential, or "" when anonymous.
	Token func() string
	// OnUnauthorized fires once per request that is rejected with 401.
	OnUnauthorized func()
	// Log records transport events at debug level.
	Log *zap.Logger
}

// New constructs a Client for the given base URL. token may be nil for a
// client that never authenticates; onUnauthorized may be nil if nothing
// needs to react to credential rejection.
func New(baseURL string, token func() string, onUnauthorized func(), log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		HTTPClient:     &http.Client{},
		Token:          token,
		OnUnauthorized: onUnauthorized,
		Log:            log,
	}
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// do builds and executes one request. body and out may be nil.
// A 401 response fires OnUnauthorized exactly once and yields
// ErrUnauthorized; the request is never retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != nil {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.Log.Debug("credential rejected", zap.String("path", path))
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: decodeMessage(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeMessage extracts the "message" field from a JSON error body.
func decodeMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}
