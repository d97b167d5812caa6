package httpserve

import (
	"net/http"

	"github.com/billfold/billfold/internal/httpserve/handlers"
	"github.com/billfold/billfold/internal/httpserve/middleware"
	"github.com/billfold/billfold/internal/server"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires every middleware and endpoint onto the echo instance.
func RegisterRoutes(e *echo.Echo, a *server.App) *echo.Echo {
	e.Use(middleware.RequestLogging())
	e.Use(echomw.Recover())
	e.Use(middleware.SecureRoutes(a))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{a.Config.Http.AppOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.InitSessionMiddleware(a))

	e.GET("/health", handlers.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authGroup := e.Group("/api/auth")
	authGroup.POST("/sign-up/email", wrap(a, handlers.SignUpEmail))
	authGroup.POST("/sign-in/email", wrap(a, handlers.SignInEmail))
	authGroup.POST("/sign-out", wrap(a, handlers.SignOut))
	authGroup.GET("/get-session", wrap(a, handlers.GetSession))
	authGroup.POST("/revoke-sessions", wrap(a, handlers.RevokeSessions))
	authGroup.POST("/send-verification-email", wrap(a, handlers.SendVerificationEmail))
	authGroup.GET("/verify-email", wrap(a, handlers.VerifyEmail))
	authGroup.GET("/sign-in/social/:provider", wrap(a, handlers.StartOAuth))
	authGroup.POST("/sign-in/social/:provider", wrap(a, handlers.StartOAuth))
	authGroup.GET("/callback/:provider", wrap(a, handlers.OAuthCallback))

	api := e.Group("/api", middleware.RequireSession(a))

	api.GET("/invoices", wrap(a, handlers.ListInvoices))
	api.POST("/invoices", wrap(a, handlers.CreateInvoice))
	api.GET("/invoices/next-number", wrap(a, handlers.NextInvoiceNumber))
	api.GET("/invoices/:id", wrap(a, handlers.GetInvoice))
	api.PUT("/invoices/:id", wrap(a, handlers.UpdateInvoice))
	api.PATCH("/invoices/:id/status", wrap(a, handlers.UpdateInvoiceStatus))
	api.DELETE("/invoices/:id", wrap(a, handlers.DeleteInvoice))

	api.GET("/templates", wrap(a, handlers.ListTemplates))
	api.POST("/templates", wrap(a, handlers.CreateTemplate))
	api.GET("/templates/default", wrap(a, handlers.GetDefaultTemplate))
	api.GET("/templates/:id", wrap(a, handlers.GetTemplate))
	api.PUT("/templates/:id", wrap(a, handlers.UpdateTemplate))
	api.DELETE("/templates/:id", wrap(a, handlers.DeleteTemplate))
	api.POST("/templates/:id/default", wrap(a, handlers.SetDefaultTemplate))

	api.GET("/dashboard/stats", wrap(a, handlers.DashboardStats))

	return e
}

func wrap(a *server.App, h func(echo.Context, *server.App) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, a)
	}
}
