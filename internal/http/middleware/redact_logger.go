// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, an access logger that scrubs
// identifying data before it reaches the logs. Behind Home Assistant
// ingress the interesting secrets are the ingress identity headers, bearer
// tokens and the 32-hex user ids, plus the usual emails and phone numbers.
// Bodies are never logged.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds header names (case-insensitive) whose values are
// replaced with "[REDACTED]" on top of the built-in set.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	haUserIDRE = regexp.MustCompile(`(?i)\b[0-9a-f]{32}\b`)
	uuidRE     = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE    = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	tokenRE    = regexp.MustCompile(`(?i)((?:access_)?token=)[^&\s]+`)
	phoneRE    = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs s. Ids go first so the phone pattern cannot eat their
// digit runs.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = tokenRE.ReplaceAllString(s, "${1}[REDACTED]")
	s = haUserIDRE.ReplaceAllString(s, "[REDACTED:id]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger logs method, route, scrubbed query and headers, status,
// size and latency of each request.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := map[string]struct{}{}
	builtin := []string{"Authorization", "Cookie", "Set-Cookie", HeaderRemoteUserName, HeaderRemoteUserDisplayName}
	for _, h := range append(builtin, opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := routeOf(c)
		query := redact(c.Request.URL.RawQuery)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := mask[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.
			Str("request_id", c.Writer.Header().Get(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
