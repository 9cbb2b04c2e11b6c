// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for resource creation. A
// client retrying POST /reminder with the same key must not create (and
// schedule) a second reminder: the validator looks the key up per user and
// route, and on a hit hands the previously created resource id to the
// handler, which answers with that resource instead of creating a new one.
package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay" // uint: resource created by the first request
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

const (
	defaultIdemMaxLen  = 200
	defaultIdemPattern = `^[A-Za-z0-9._~\-:]+$`
)

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyScope returns the scope the key was looked up under
// ("<METHOD> <route>").
func IdempotencyScope(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemScope)
	s, _ := v.(string)
	return s
}

// ReplayOf returns the id of the resource a previous request with the same
// key created.
func ReplayOf(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// IsReplay reports whether the request replays an earlier one.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayOf(c)
	return ok
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup returns the resource created by an earlier, unexpired
// request of homeAssistantUserID with key in scope. Errors are logged and
// treated as a miss.
type IdempotencyLookup func(ctx context.Context, homeAssistantUserID, scope, key string) (resourceID uint, found bool, err error)

// IdempotencyValidator validates the Idempotency-Key header of POST requests
// and, through lookup, detects replays. Replays skip rate limiting.
// Requests without the header, and non-POST requests, pass through.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(defaultIdemPattern)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "Invalid Idempotency-Key.")
			return
		}

		scope := idempotencyScope(c)
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if uid := userIDFromCtx(c); lookup != nil && uid != "" {
			id, found, err := lookup(c.Request.Context(), uid, scope, key)
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

func idempotencyScope(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.Request.Method + " " + path
}

// userIDFromCtx returns the Home Assistant user id stored by
// HomeAssistantHeaders, or "" when the request is anonymous.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
