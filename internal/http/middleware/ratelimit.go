// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one
// bucket per Home Assistant user (client IP for anonymous requests). The
// add-on runs as a single process behind ingress, so a process-local limiter
// is sufficient. Idle buckets are evicted opportunistically.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc selects the bucket a request is charged to.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP charges requests to the Home Assistant user stored by
// HomeAssistantHeaders, falling back to the client IP.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid := userIDFromCtx(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// gcEvery is the number of lookups between two idle-bucket sweeps.
const gcEvery = 5000

// RateLimiter enforces a per-key token bucket. It is safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	lookups uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		ttl:     10 * time.Minute,
	}
}

// limiterFor returns the bucket of key, creating it on first use. Idle
// buckets are swept before the lookup so a stale entry is not refreshed.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= gcEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay that must not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the limiting middleware. Rejected requests get 429 with a
// Retry-After (whole seconds, at least 1) derived from the bucket refill.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		res := rl.limiterFor(rl.keyFn(c)).Reserve()
		if res.OK() && res.Delay() == 0 {
			c.Next()
			return
		}

		wait := time.Second
		if res.OK() {
			wait = res.Delay()
			res.Cancel()
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", "Too many requests.")
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
