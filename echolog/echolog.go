// Package echolog provides Echo request logging through a logfan logger,
// so HTTP request summaries flow into the same registered targets as
// application logs.
package echolog

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/logfan"
)

// DefaultSlowRequestThreshold marks requests slower than this as degraded.
const DefaultSlowRequestThreshold = 1 * time.Second

// Config configures the request logging middleware.
type Config struct {
	// SkipPaths lists route paths excluded from logging, typically health
	// and readiness probes.
	SkipPaths []string

	// SlowRequestThreshold is the latency above which a successful request
	// is logged at warning severity. Zero or negative disables the check.
	SlowRequestThreshold time.Duration
}

// Middleware returns a request logging middleware with the default
// configuration.
func Middleware(log *logfan.Logger) echo.MiddlewareFunc {
	return MiddlewareWithConfig(log, Config{
		SlowRequestThreshold: DefaultSlowRequestThreshold,
	})
}

// MiddlewareWithConfig returns a request logging middleware. Each request
// emits one summary record whose severity reflects the response status:
// 5xx and unhandled errors log at error, 4xx at warning, and slow but
// successful requests at warning. Everything else logs at information.
func MiddlewareWithConfig(log *logfan.Logger, cfg Config) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if _, ok := skip[path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			latency := time.Since(start)
			status := resolveStatus(c, err)

			level, result := requestSeverity(status, latency, cfg.SlowRequestThreshold)
			message := requestMessage(c.Request().Method, c.Request().URL.Path, latency, status)

			fields := []any{
				logfan.F("http.request.method", c.Request().Method),
				logfan.F("http.response.status_code", status),
				logfan.F("http.server.request.duration", latency.Nanoseconds()),
				logfan.F("url.path", c.Request().URL.Path),
				logfan.F("http.route", path),
				logfan.F("client.address", c.RealIP()),
				logfan.F("user_agent.original", c.Request().UserAgent()),
				logfan.F("result_code", result),
			}
			if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
				fields = append(fields, logfan.F("request_id", requestID))
			}

			ctx := c.Request().Context()
			if err != nil && level >= logfan.Error {
				log.Exception(ctx, message, err, fields...)
			} else {
				log.Log(ctx, level, message, fields...)
			}

			return err
		}
	}
}

// resolveStatus determines the status code a request will answer with.
// Handler errors are resolved before Echo's error handler commits the
// response, so the code comes from the error rather than the response.
func resolveStatus(c echo.Context, err error) int {
	if err != nil && !c.Response().Committed {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.Code
		}
		return http.StatusInternalServerError
	}
	return c.Response().Status
}

// requestSeverity maps the response outcome to a log severity and a
// coarse result code used for filtering.
func requestSeverity(status int, latency, threshold time.Duration) (logfan.Severity, string) {
	switch {
	case status >= 500:
		return logfan.Error, "ERROR"
	case status >= 400:
		return logfan.Warning, "WARN"
	case threshold > 0 && latency > threshold:
		return logfan.Warning, "SLOW"
	default:
		return logfan.Information, "OK"
	}
}

func requestMessage(method, path string, latency time.Duration, status int) string {
	return fmt.Sprintf("%s %s completed in %s with status %d", method, path, latency, status)
}
