package pocketbase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/billfold/billfold/pkg/logger"
)

// authState holds the cached admin token. It is shared by every operation;
// concurrent first calls are collapsed into one login via singleflight.
type authState struct {
	mu    sync.RWMutex
	token string
}

// Authenticate performs the admin login eagerly. Operations call ensureAuth
// themselves, so this is only needed to fail fast at startup.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err := c.ensureAuth(ctx)
	return err
}

// ensureAuth returns the cached admin token, logging in first if the cache
// is empty. Only one login is in flight at a time; concurrent callers share
// its result. A login failure propagates to the caller of the triggering
// operation and is not retried.
func (c *Client) ensureAuth(ctx context.Context) (string, error) {
	if c.adminEmail == "" && c.adminPassword == "" {
		return "", nil
	}

	c.auth.mu.RLock()
	token := c.auth.token
	c.auth.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	result, err, _ := c.group.Do("admin-login", func() (any, error) {
		return c.adminLogin(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// invalidateAuth drops the cached token, but only if it is still the one the
// failed request used. A concurrent re-login may already have replaced it.
func (c *Client) invalidateAuth(stale string) {
	c.auth.mu.Lock()
	if c.auth.token == stale {
		c.auth.token = ""
	}
	c.auth.mu.Unlock()
}

func (c *Client) adminLogin(ctx context.Context) (string, error) {
	logger.Debug("Authenticating against the store", "url", c.baseURL, "email", c.adminEmail)

	resp, err := c.do(ctx, http.MethodPost, "/api/collections/_superusers/auth-with-password", nil, map[string]string{
		"identity": c.adminEmail,
		"password": c.adminPassword,
	}, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		authErr := &AuthenticationError{Status: resp.StatusCode}
		body, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			var payload struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
				authErr.Message = payload.Message
			} else {
				authErr.Message = string(body)
			}
		}
		logger.Error("Store authentication failed", "status", authErr.Status, "message", authErr.Message)
		return "", authErr
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	c.auth.mu.Lock()
	c.auth.token = payload.Token
	c.auth.mu.Unlock()

	logger.Debug("Store authentication successful")
	return payload.Token, nil
}
