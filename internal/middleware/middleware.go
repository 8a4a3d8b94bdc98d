package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter throttles mutating requests per client and route, identified by
// the X-Client-ID header the UI attaches to every call. Order submission and
// control routes carry different intervals.
type RateLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{last: make(map[string]time.Time)}
}

// Limit enforces a minimum interval between a client's calls to one route.
func (r *RateLimiter) Limit(interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("X-Client-ID")
		if clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Client-ID header required"})
			c.Abort()
			return
		}
		key := clientID + ":" + c.FullPath()
		r.mu.Lock()
		last, exists := r.last[key]
		if exists && time.Since(last) < interval {
			r.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		r.last[key] = time.Now()
		r.mu.Unlock()
		c.Next()
	}
}
