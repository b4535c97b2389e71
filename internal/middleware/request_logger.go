package middleware

import (
	"time"

	"myTrendyMart/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request through pkg/logger so request
// logs share the structured output of the rest of the engine.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			logger.Info("http_request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)

			return err
		}
	}
}
