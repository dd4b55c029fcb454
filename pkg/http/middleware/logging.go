package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "MoneyLoop/pkg/logger"
)

// RequestLogging logs one line per request through the shared logger.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			l.Info("http request",
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}
