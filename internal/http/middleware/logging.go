// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the request-scoped access
// logger and panic recovery:
//
//   - RequestID() reuses or generates X-Request-ID.
//   - Logger() attaches a zerolog.Logger carrying the request id, the Home
//     Assistant user (once known) and the route, then logs the outcome at a
//     level chosen by status.
//   - Recovery() turns panics into the JSON 500 envelope. A reminder
//     invariant violation (see scheduler.OnDelete) surfaces here when it is
//     triggered by an API call.
//   - LoggerFrom() returns the request-scoped logger for handlers.
//
// Order: RequestID, Logger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	loggerKey         = "logger"
	maxQueryLogLength = 1024
)

// RequestID attaches (or propagates) a correlation identifier per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger stores a request-scoped logger in the context and writes one
// access log line per request: error for 5xx or recorded gin errors, warn
// for 4xx, debug for health and metrics probes, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		l := log.With().
			Str("component", "http").
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", routeOf(c)).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		// HomeAssistantHeaders runs later in the chain; pick the user up now.
		ev := l.With().
			Str("ha_user", userIDFromCtx(c)).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Logger()

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= http.StatusInternalServerError:
			ev.Error().Msg("request")
		case status >= http.StatusBadRequest:
			ev.Warn().Msg("request")
		case c.FullPath() == "/health" || c.FullPath() == "/metrics":
			ev.Debug().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery logs a panic with its stack and answers 500 if nothing was
// written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if !c.Writer.Written() {
					abortJSON(c, http.StatusInternalServerError, "internal_error", "Internal Server Error.")
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or the global one when
// Logger() did not run.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate cuts s to max bytes; max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
