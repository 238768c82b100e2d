package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"vehicle-reserve-backend/internal/metrics"
)

// Observe logs each request and records the Prometheus request
// counters and latency histogram. The route template, not the raw
// path, is used as the label to keep cardinality bounded.
func Observe(log zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			elapsed := time.Since(start)
			status := c.Response().Status
			method := c.Request().Method
			route := c.Path()

			if m != nil {
				m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
				m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
			}

			ev := log.Info()
			if status >= 500 {
				ev = log.Error()
			}
			ev.Str("method", method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("elapsed", elapsed).
				Str("ip", c.RealIP()).
				Msg("request")
			return nil
		}
	}
}
