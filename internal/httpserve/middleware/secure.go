package middleware

import (
	"fmt"

	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SecureRoutes sets the standard hardening headers on every response. The
// relay only ever serves JSON, so the content policy allows nothing beyond
// API calls from the frontend origin.
func SecureRoutes(a *server.App) echo.MiddlewareFunc {
	appOrigin := a.Config.Http.AppOrigin

	csp := fmt.Sprintf(
		"default-src 'none'; connect-src 'self' %s; frame-ancestors 'none'",
		appOrigin,
	)

	return middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            3600,
		HSTSExcludeSubdomains: false,
		ContentSecurityPolicy: csp,
	})
}
