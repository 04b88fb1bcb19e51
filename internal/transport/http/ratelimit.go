package httptransport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a fixed-window per-key counter. Windows reset wholesale
// rather than sliding, which is accurate enough for abuse throttling on a
// single process.
type rateLimiter struct {
	mu     sync.Mutex
	hits   map[string]int
	limit  int
	window time.Duration
	reset  time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		hits:   make(map[string]int),
		limit:  limit,
		window: window,
		reset:  time.Now().Add(window),
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.reset) {
		l.hits = make(map[string]int)
		l.reset = now.Add(l.window)
	}

	l.hits[key]++
	return l.hits[key] <= l.limit
}

// RateLimit throttles requests per client IP.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := newRateLimiter(limit, window)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			RespondError(c, http.StatusTooManyRequests, "too many requests, try again later", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
