// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The add-on UI is rendered inside the
// Home Assistant frontend through an ingress iframe, so framing is limited to
// the same origin rather than denied outright.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // add Cache-Control: no-store
	EnablePolicy bool          // add Permissions-Policy and friends
}

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityHeaders sets conservative response headers:
//   - always: X-Content-Type-Options nosniff, X-Frame-Options SAMEORIGIN,
//     Referrer-Policy same-origin;
//   - EnablePolicy: Permissions-Policy and X-Permitted-Cross-Domain-Policies;
//   - NoStore: Cache-Control no-store (with Pragma/Expires);
//   - EnableHSTS on HTTPS requests: Strict-Transport-Security.
//
// X-Request-ID is added to Access-Control-Expose-Headers when present.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("Referrer-Policy", "same-origin")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			const expose = "Access-Control-Expose-Headers"
			switch cur := h.Get(expose); {
			case cur == "":
				h.Set(expose, requestIDHeader)
			case !strings.Contains(cur, requestIDHeader):
				h.Set(expose, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS directly or through
// a proxy setting X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
