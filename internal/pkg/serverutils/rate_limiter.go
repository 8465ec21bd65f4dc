package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per caller. Idle buckets expire.
type RateLimiter struct {
	perMinute int
	burst     int
	buckets   *cache.Cache
}

// NewRateLimiter returns nil when perMinute is not positive, which disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		perMinute: perMinute,
		burst:     burst,
		buckets:   cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Allow reports whether the caller may spend one request now
func (l *RateLimiter) Allow(caller string) bool {
	if l == nil {
		return true
	}

	fresh := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.burst)
	if err := l.buckets.Add(caller, fresh, cache.DefaultExpiration); err == nil {
		return fresh.Allow()
	}

	v, ok := l.buckets.Get(caller)
	if !ok {
		// Evicted between Add and Get
		l.buckets.SetDefault(caller, fresh)
		return fresh.Allow()
	}
	limiter := v.(*rate.Limiter)
	// Touch so active callers keep their bucket
	l.buckets.SetDefault(caller, limiter)
	return limiter.Allow()
}

// Middleware limits by the user id AuthMiddleware stored, so it must run after it
func (l *RateLimiter) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		caller := UserIDFrom(ctx)
		if caller == "" {
			caller = ctx.IP()
		}
		if !l.Allow(caller) {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(TypedErrorResponse(429, "rate_limit", "Too many requests, please slow down"))
		}
		return ctx.Next()
	}
}
