// ratelimit.go enforces per-client token-bucket rate limits, returning 429
// when the configured requests-per-minute threshold is exceeded. Buckets live
// either in-process (single instance) or in Redis (shared across instances).
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/friendindeed/friendindeed/internal/config"
	"github.com/friendindeed/friendindeed/internal/safego"
)

// Limiter is the rate limiting contract shared by the memory and Redis
// backends. Allow consumes one token for key and reports whether the request
// may proceed along with the tokens remaining.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Stop()
}

// NewLimiter builds a limiter from the rate limiting configuration. The
// backend has already been validated by config.Validate.
func NewLimiter(cfg config.RateLimitingConfig) Limiter {
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return &redisLimiter{
			client:  client,
			limiter: redis_rate.NewLimiter(client),
			limit: redis_rate.Limit{
				Rate:   cfg.RequestsPerMinute,
				Burst:  cfg.Burst,
				Period: time.Minute,
			},
		}
	}
	return newMemoryLimiter(cfg.RequestsPerMinute, cfg.Burst)
}

// memoryLimiter is an in-process token bucket per client key.
type memoryLimiter struct {
	requestsPerMinute int
	burst             int

	mu      sync.Mutex
	entries map[string]*bucket
	stopCh  chan struct{}
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

func newMemoryLimiter(requestsPerMinute, burst int) *memoryLimiter {
	l := &memoryLimiter{
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		entries:           make(map[string]*bucket),
		stopCh:            make(chan struct{}),
	}
	safego.Go("ratelimit-cleanup", l.cleanup)
	return l
}

// cleanup drops buckets that have been idle long enough to refill completely,
// bounding memory growth from one-off clients.
func (l *memoryLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, b := range l.entries {
				if now.Sub(b.lastUpdate) > 10*time.Minute {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.entries[key]
	if !exists {
		l.entries[key] = &bucket{tokens: float64(l.burst) - 1, lastUpdate: now}
		return true, l.burst - 1, nil
	}

	refill := now.Sub(b.lastUpdate).Seconds() * float64(l.requestsPerMinute) / 60.0
	b.tokens = min(float64(l.burst), b.tokens+refill)
	b.lastUpdate = now

	if b.tokens < 1 {
		return false, 0, nil
	}
	b.tokens--
	return true, int(b.tokens), nil
}

func (l *memoryLimiter) Stop() {
	close(l.stopCh)
}

// redisLimiter shares token buckets across instances via the redis_rate GCRA
// implementation.
type redisLimiter struct {
	client  *redis.Client
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	res, err := l.limiter.Allow(ctx, key, l.limit)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed > 0, res.Remaining, nil
}

func (l *redisLimiter) Stop() {
	if err := l.client.Close(); err != nil {
		slog.Warn("failed to close redis rate limiter client", "error", err)
	}
}

// RateLimit enforces the limiter per client key. Authenticated requests are
// keyed by user so a shared NAT does not starve volunteers; anonymous
// requests fall back to the client IP. When the Redis backend is unreachable
// the limiter fails open: availability of the marketplace wins over strict
// limiting.
func RateLimit(limiter Limiter, requestsPerMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(requestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

func rateLimitKey(c *gin.Context) string {
	if p := PrincipalFrom(c); p != nil {
		return "user:" + p.UserID
	}
	return "ip:" + c.ClientIP()
}
