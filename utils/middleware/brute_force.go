package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub/utils/cache"
	"github.com/sahilchouksey/learnhub/utils/response"
)

// Lockout is one step of the progressive lockout ladder
type Lockout struct {
	Attempts int64
	Duration time.Duration
}

// DefaultLockouts locks an IP for 2 minutes after 5 failures, 1 hour after 10 and a day after 25
var DefaultLockouts = []Lockout{
	{Attempts: 25, Duration: 24 * time.Hour},
	{Attempts: 10, Duration: time.Hour},
	{Attempts: 5, Duration: 2 * time.Minute},
}

// BruteForceProtection throttles failed logins per client IP using Redis
type BruteForceProtection struct {
	redisCache    *cache.RedisCache
	lockouts      []Lockout
	attemptWindow time.Duration
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache:    redisCache,
		lockouts:      DefaultLockouts,
		attemptWindow: 15 * time.Minute,
	}
}

func attemptKey(ip string) string { return "login:attempts:" + ip }
func lockKey(ip string) string    { return "login:lock:" + ip }

// CheckAndRecordAttempt middleware rejects requests from locked out IPs
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := lockKey(c.IP())

		locked, err := b.redisCache.Exists(c.Context(), key)
		if err != nil {
			// Redis outages must not lock everybody out
			return c.Next()
		}

		if locked {
			ttl, _ := b.redisCache.TTL(c.Context(), key)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt counts a failed login and applies the lockout ladder
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx) error {
	ctx := c.Context()
	ip := c.IP()

	attempts, err := b.redisCache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return nil
	}

	if attempts == 1 {
		b.redisCache.Expire(ctx, attemptKey(ip), b.attemptWindow)
	}

	for _, l := range b.lockouts {
		if attempts >= l.Attempts {
			return b.redisCache.Set(ctx, lockKey(ip), "locked", l.Duration)
		}
	}
	return nil
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx) error {
	return b.redisCache.Delete(c.Context(), attemptKey(c.IP()), lockKey(c.IP()))
}
