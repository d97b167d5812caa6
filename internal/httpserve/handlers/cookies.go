package handlers

import (
	"net/http"
	"strings"

	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/httpserve/middleware"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
)

func setSessionCookies(c echo.Context, a *server.App, user auth.User, session auth.Session) {
	secure := strings.HasPrefix(a.Config.Auth.BaseURL, "https://")

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     middleware.CacheCookieName,
		Value:    a.Auth.EncodeCacheCookie(user, session),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(c echo.Context) {
	for _, name := range []string{middleware.SessionCookieName, middleware.CacheCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
}
