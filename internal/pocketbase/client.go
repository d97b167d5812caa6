// Package pocketbase is an HTTP client for the remote collection store. It
// covers the subset of the store's API the rest of the system needs: admin
// password authentication, record CRUD, paged listing and the collections
// admin endpoint used by the one-shot bootstrap.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Client is an HTTP client for the collection store API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	adminEmail    string
	adminPassword string

	auth  authState
	group singleflight.Group
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// NewClient creates a new collection store client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	// Normalize base URL
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithAdminCredentials sets the admin identity used for elevated access.
func WithAdminCredentials(email, password string) ClientOption {
	return func(c *Client) {
		c.adminEmail = email
		c.adminPassword = password
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// BaseURL returns the normalized store base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request performs an authenticated HTTP request against the store API.
// On a 401 the cached admin token is dropped and the request retried once
// with a fresh login.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	token, err := c.ensureAuth(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, method, path, query, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.invalidateAuth(token)
		token, err = c.ensureAuth(ctx)
		if err != nil {
			return nil, err
		}
		return c.do(ctx, method, path, query, body, token)
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	return c.httpClient.Do(req)
}

// parseResponse parses a JSON response into the given target, converting
// error statuses into *APIError.
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return newAPIError(resp)
	}

	if target == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
