package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/billfold/billfold/internal/adapter"
	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/common"
	"github.com/billfold/billfold/internal/httpserve/middleware"
	"github.com/billfold/billfold/internal/pocketbase/pbtest"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionApp(t *testing.T, baseURL string) (*server.App, auth.Session) {
	t.Helper()

	store := pbtest.New(t)
	for _, name := range []string{
		auth.ModelUser, auth.ModelSession, auth.ModelAccount, auth.ModelVerification,
	} {
		store.CreateCollection(name)
	}

	client := store.Client()
	db := adapter.New(client)
	app := &server.App{
		Config: &common.Config{
			Auth: common.AuthConfig{BaseURL: baseURL, Secret: "test-secret"},
		},
		Store: client,
		DB:    db,
		Auth:  auth.NewService(db, "test-secret"),
	}

	_, session, err := app.Auth.SignUpEmail(context.Background(),
		"alice@example.com", "password123", "Alice", auth.ClientInfo{})
	require.NoError(t, err)
	return app, session
}

func resolveWithSessionCookie(t *testing.T, app *server.App, token string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := middleware.RequireSession(app)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec
}

func cacheCookieHeader(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, h := range rec.Header().Values("Set-Cookie") {
		if strings.HasPrefix(h, middleware.CacheCookieName+"=") {
			return h
		}
	}
	t.Fatalf("no %s cookie set", middleware.CacheCookieName)
	return ""
}

func TestRefreshedCacheCookieSecureOverHTTPS(t *testing.T) {
	app, session := newSessionApp(t, "https://billfold.example.com")

	rec := resolveWithSessionCookie(t, app, session.Token)
	assert.Contains(t, cacheCookieHeader(t, rec), "Secure")
}

func TestRefreshedCacheCookiePlainOverHTTP(t *testing.T) {
	app, session := newSessionApp(t, "http://localhost:3001")

	rec := resolveWithSessionCookie(t, app, session.Token)
	header := cacheCookieHeader(t, rec)
	assert.NotContains(t, header, "Secure")
	assert.Contains(t, header, "HttpOnly")
}
