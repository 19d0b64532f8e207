package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// ErrRateLimit is raised when a client exceeds its request quota for a window.
type ErrRateLimit struct {
	Err        error
	RetryAfter int
}

func (e *ErrRateLimit) Error() string { return e.Err.Error() }
func (e *ErrRateLimit) Unwrap() error { return e.Err }

// RateLimit enforces a fixed-window, per-IP rate limit. Intended for the
// LLM-backed /detect and /apply endpoints, where a runaway client can
// otherwise exhaust the configured model quota for every other caller.
//
// Tracking:
// - Per client IP (uses ClientIP() which respects X-Forwarded-For with trusted proxies)
// - Fixed window resets every `window` duration
// - In-memory tracking (not distributed across instances)
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	hits := make(map[string]rateLimitEntry)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			now := time.Now()
			for ip, entry := range hits {
				if now.Sub(entry.windowStart) >= window {
					delete(hits, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		entry := hits[ip]
		if entry.windowStart.IsZero() || now.Sub(entry.windowStart) >= window {
			entry.windowStart = now
			entry.count = 0
		}

		if entry.count >= limit {
			remaining := window - now.Sub(entry.windowStart)
			mu.Unlock()

			retryAfter := int(math.Ceil(remaining.Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			err := &ErrRateLimit{
				Err:        fmt.Errorf("rate limit exceeded: %d requests per %v", limit, window),
				RetryAfter: retryAfter,
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorPayload{Error: err.Error(), Code: "rate_limited"})
			return
		}

		entry.count++
		hits[ip] = entry
		mu.Unlock()

		c.Next()
	}
}
