package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

// TokenBucket is an in-memory per-client rate limiter. Buckets refill
// continuously at perMinute tokens per minute up to capacity.
type TokenBucket struct {
	capacity float64
	perSec   float64
	clock    clockwork.Clock

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter. A non-positive capacity defaults to perMinute.
func NewTokenBucket(capacity, perMinute int, clock clockwork.Clock) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenBucket{
		capacity: float64(capacity),
		perSec:   float64(perMinute) / 60,
		clock:    clock,
		state:    make(map[string]*bucket),
	}
}

// Middleware enforces per-IP limits. A non-positive rate disables limiting.
func (l *TokenBucket) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.perSec <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.Allow(ip) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// Allow takes one token from key's bucket.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	b, ok := l.state[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.state[key] = b
	}
	b.tokens += now.Sub(b.last).Seconds() * l.perSec
	if b.tokens > l.capacity {
		b.tokens = l.capacity
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Prune drops buckets that have been full for at least idle.
func (l *TokenBucket) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	n := 0
	for key, b := range l.state {
		if now.Sub(b.last) >= idle {
			delete(l.state, key)
			n++
		}
	}
	return n
}
