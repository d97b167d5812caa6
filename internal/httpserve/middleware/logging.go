package middleware

import (
	"github.com/billfold/billfold/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestLogging logs every request with method, path, status and latency
// through the shared logger.
func RequestLogging() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			keyvals := []interface{}{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency.String(),
				"ip", v.RemoteIP,
			}
			if v.Error != nil {
				keyvals = append(keyvals, "error", v.Error)
			}

			switch {
			case v.Status >= 500:
				logger.Error("Request failed", keyvals...)
			case v.Status >= 400:
				logger.Warn("Request rejected", keyvals...)
			default:
				logger.Debug("Request served", keyvals...)
			}
			return nil
		},
	})
}
