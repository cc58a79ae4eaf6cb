package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Limit for failed login attempts: 5 per minute per IP.
const (
	loginAttemptLimit  = 5
	loginAttemptWindow = time.Minute
)

// LoginLimiter throttles failed login attempts per client IP. The counter
// lives in Redis so the limit holds across instances.
type LoginLimiter struct {
	redis *RedisClient
}

// NewLoginLimiter creates a new LoginLimiter.
func NewLoginLimiter(redis *RedisClient) *LoginLimiter {
	return &LoginLimiter{redis: redis}
}

func (l *LoginLimiter) key(ip string) string {
	return fmt.Sprintf("auth:fail:%s", ip)
}

// Allow records a failed attempt for ip and reports whether the caller is
// still under the limit. Redis outages fail open: throttling is a shield,
// not a correctness requirement.
func (l *LoginLimiter) Allow(ctx context.Context, ip string) bool {
	n, err := l.redis.IncrWithTTL(ctx, l.key(ip), loginAttemptWindow)
	if err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("login limiter unavailable")
		return true
	}
	return n <= loginAttemptLimit
}

// Reset clears the failure counter for ip after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, ip string) {
	if err := l.redis.Delete(ctx, l.key(ip)); err != nil {
		log.Warn().Err(err).Str("ip", ip).Msg("login limiter reset failed")
	}
}
