package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"landq-backend/internal/infrastructure/metrics"
)

// Metrics counts requests by route template rather than raw path.
func Metrics(col *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			col.HTTPRequest(c.Request().Method, route, c.Response().Status, time.Since(start).Seconds())
			return nil
		}
	}
}
