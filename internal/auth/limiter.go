package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// attemptNamespace is the fixed key prefix for failed-login counters.
const attemptNamespace = "backoffice:login_attempts:"

// LoginLimiter tracks failed login attempts per email in Redis and blocks
// further attempts once the configured maximum is reached. A zero
// maxAttempts disables the limiter.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	lockout     time.Duration
}

// NewLoginLimiter constructs a limiter.
func NewLoginLimiter(client *redis.Client, maxAttempts int, lockout time.Duration) *LoginLimiter {
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, lockout: lockout}
}

// Locked reports whether the email has exhausted its attempts. Store errors
// report unlocked: the limiter is an abuse brake, not an availability gate.
func (l *LoginLimiter) Locked(ctx context.Context, email string) bool {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return false
	}
	count, err := l.client.Get(ctx, l.key(email)).Int()
	if err != nil {
		return false
	}
	return count >= l.maxAttempts
}

// RecordFailure increments the attempt counter, starting the lockout window
// on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return
	}
	key := l.key(email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if count == 1 {
		_ = l.client.Expire(ctx, key, l.lockout).Err()
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if l == nil || l.client == nil {
		return
	}
	_ = l.client.Del(ctx, l.key(email)).Err()
}

func (l *LoginLimiter) key(email string) string {
	return attemptNamespace + strings.ToLower(strings.TrimSpace(email))
}
