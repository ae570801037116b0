package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/handler"
	"github.com/DukeRupert/smartmail/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request identified by key may proceed.
// retryAfter is how long until the key's window resets when denied.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// =============================================================================
// In-Memory Rate Limiter
// =============================================================================

// RateLimiter tracks request counts per key with a fixed window.
// It is process-local; use RedisLimiter when running more than one instance.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given key should be allowed.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]

	if !exists || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true, 0, nil
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true, 0, nil
	}

	return false, rl.window - now.Sub(entry.windowStart), nil
}

// cleanup periodically removes expired entries to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, entry := range rl.entries {
			if now.Sub(entry.windowStart) >= rl.window {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// =============================================================================
// Redis Rate Limiter
// =============================================================================

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisLimiter limits requests per key in a fixed window shared across instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed fixed window limiter.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "smartmail:ratelimit"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}, nil
}

// Allow increments the key's counter for the current window.
// Redis failures are returned with allowed=false.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	windowMs := l.window.Milliseconds()
	nowMs := l.now().UTC().UnixMilli()
	slot := nowMs / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, l.window, fmt.Errorf("rate limit script: %w", err)
	}
	if count <= int64(l.limit) {
		return true, 0, nil
	}

	remaining := time.Duration((slot+1)*windowMs-nowMs) * time.Millisecond
	return false, remaining, nil
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a Limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	name    string
	limiter Limiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
// name labels the limiter in logs and metrics.
func NewRateLimitMiddleware(name string, limiter Limiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		name:    name,
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests.
//
// Authenticated requests are keyed by user id, anonymous ones by client IP.
// Place it after WithUser so the profile is available.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rateLimitKey(r)

		allowed, retryAfter, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// Fail closed
			m.logger.Error("rate limiter unavailable",
				"limiter", m.name,
				"error", err,
			)
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		metrics.RateLimitedTotal.WithLabelValues(m.name).Inc()
		m.logger.Warn("rate limit exceeded",
			"limiter", m.name,
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
		)

		seconds := int(retryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		handler.ErrorResponse(w, r, m.logger, domain.RateLimit("ratelimit."+m.name))
	})
}

func rateLimitKey(r *http.Request) string {
	if profile := auth.GetProfile(r.Context()); profile != nil {
		return "user:" + profile.UserID.String()
	}
	return "ip:" + handler.ClientIP(r)
}

var (
	_ Limiter = (*RateLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
