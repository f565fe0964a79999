package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	maxTrackedOperators  = 10000
)

// RateLimiter holds one token bucket per authenticated operator. Buckets are
// created lazily on first request.
type RateLimiter struct {
	limiters map[uuid.UUID]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[uuid.UUID]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    rps * 2,
	}
}

func (rl *RateLimiter) getLimiter(operatorID uuid.UUID) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[operatorID]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[operatorID] = limiter
	}
	return limiter
}

// Cleanup bounds the limiter map. Operator counts are small in practice;
// resetting past the cap just costs a refilled burst.
func (rl *RateLimiter) Cleanup() {
	ticker := time.NewTicker(limiterSweepInterval)
	go func() {
		for range ticker.C {
			rl.mu.Lock()
			if len(rl.limiters) > maxTrackedOperators {
				rl.limiters = make(map[uuid.UUID]*rate.Limiter)
			}
			rl.mu.Unlock()
		}
	}()
}

// RateLimitMiddleware throttles requests per authenticated operator. Requests
// without an operator identity pass through; the auth middleware already
// rejected unauthenticated calls on protected routes.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user_id")
		if !exists {
			c.Next()
			return
		}
		operatorID, ok := value.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		if !rl.getLimiter(operatorID).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
