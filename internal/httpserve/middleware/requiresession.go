package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
)

// Context keys set by RequireSession.
const (
	ContextUser         = "billfold.user"
	ContextSessionToken = "billfold.session_token"
)

// SessionCookieName holds the opaque session token.
const SessionCookieName = "billfold_session"

// CacheCookieName holds the signed short-lived session cache.
const CacheCookieName = "billfold_session_data"

// RequireSession guards a route group: requests must carry a valid session
// cookie. The signed cache cookie short-circuits the store round-trip for
// up to five minutes; everything else goes through full resolution.
func RequireSession(a *server.App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			token := cookie.Value

			if cacheCookie, err := c.Cookie(CacheCookieName); err == nil {
				if cached, ok := a.Auth.DecodeCacheCookie(cacheCookie.Value); ok && cached.Token == token {
					c.Set(ContextUser, auth.User{ID: cached.UserID, Email: cached.Email, Name: cached.Name})
					c.Set(ContextSessionToken, token)
					return next(c)
				}
			}

			user, session, err := a.Auth.ResolveSession(c.Request().Context(), token)
			if errors.Is(err, auth.ErrInvalidSession) || errors.Is(err, auth.ErrSessionExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
			}

			c.SetCookie(&http.Cookie{
				Name:     CacheCookieName,
				Value:    a.Auth.EncodeCacheCookie(user, session),
				Path:     "/",
				HttpOnly: true,
				Secure:   strings.HasPrefix(a.Config.Auth.BaseURL, "https://"),
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(ContextUser, user)
			c.Set(ContextSessionToken, token)
			return next(c)
		}
	}
}

// UserFrom returns the authenticated user RequireSession stored on the
// context.
func UserFrom(c echo.Context) auth.User {
	user, _ := c.Get(ContextUser).(auth.User)
	return user
}

// SessionTokenFrom returns the session token RequireSession stored on the
// context.
func SessionTokenFrom(c echo.Context) string {
	token, _ := c.Get(ContextSessionToken).(string)
	return token
}
