package middleware

import (
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/server"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// InitSessionMiddleware initializes the cookie session used to carry OAuth
// handshake state across the redirect round-trip.
func InitSessionMiddleware(a *server.App) echo.MiddlewareFunc {
	isHTTPS := strings.HasPrefix(a.Config.Auth.BaseURL, "https://")

	store := sessions.NewCookieStore([]byte(a.Config.Auth.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS,
		MaxAge:   600,
		SameSite: http.SameSiteLaxMode,
	}
	return session.Middleware(store)
}
