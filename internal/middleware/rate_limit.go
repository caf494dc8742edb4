package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRateLimiter keeps one token bucket per client key (the request IP).
type LoginRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// NewLoginRateLimiter allows perMinute attempts per client with the given burst.
func NewLoginRateLimiter(perMinute, burst int) *LoginRateLimiter {
	return &LoginRateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may make another attempt now.
func (rl *LoginRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// refillPeriod is how long an untouched bucket takes to fill up again.
// Zero means buckets never refill.
func (rl *LoginRateLimiter) refillPeriod() time.Duration {
	if rl.limit <= 0 {
		return 0
	}
	return time.Duration(float64(rl.burst) / float64(rl.limit) * float64(time.Second))
}

// Cleanup drops buckets idle long enough to be full again. A dropped bucket is
// recreated in the same state, so eviction never loosens throttling.
func (rl *LoginRateLimiter) Cleanup() int {
	refill := rl.refillPeriod()
	if refill <= 0 {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-refill)
	removed := 0
	for key, b := range rl.clients {
		if !b.lastSeen.After(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// Tracked returns the number of client buckets held.
func (rl *LoginRateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// StartCleanupWorker runs Cleanup every interval until ctx is done.
func (rl *LoginRateLimiter) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Handler rejects requests over the limit with 429 Too Many Requests.
func (rl *LoginRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if rl.Allow(ip) {
			return c.Next()
		}
		GetRequestFileLogger(c).Warn("Login attempt throttled", zap.String("ip", ip))
		GetRequestSQLiteLogger(c).Warn("Login attempt throttled", zap.String("ip", ip))
		c.Set(fiber.HeaderRetryAfter, "60")
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many login attempts, try again later",
		})
	}
}
