package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CounterStore counts hits per key within a fixed window. Implemented by
// the in-process store below and by the redis store for multi-instance
// deployments.
type CounterStore interface {
	Incr(key string, window time.Duration) (count int, windowEnd time.Time, err error)
}

type RateLimiter struct {
	store  CounterStore
	window time.Duration
	limit  int
}

func NewRateLimiter(store CounterStore, limit int, window time.Duration) *RateLimiter {
	if store == nil {
		store = NewMemoryCounterStore()
	}

	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Middleware enforces the limit for a derived key. Store errors fail
// open: a dead redis must not take logins down with it.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		count, windowEnd, err := rl.store.Incr(key, rl.window)

		if err != nil {
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(time.Until(windowEnd).Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// for authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := IdentityFromContext(c)

	if ok && id.ID != "" {
		return "user:" + id.ID
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	// Normalize ipv6 zone
	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryCounterStore is the single-process fallback.
type MemoryCounterStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		clients: make(map[string]*clientBucket),
	}
}

func (s *MemoryCounterStore) Incr(key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		b = &clientBucket{count: 0, windowEnd: now.Add(window)}
		s.clients[key] = b
	}

	b.count++

	return b.count, b.windowEnd, nil
}
