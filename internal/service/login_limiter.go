package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter throttles repeated failed logins per account key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// recordFailureScript bumps the counter and gives it a TTL in one step,
// repairing a counter that was left without one.
var recordFailureScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type redisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisLoginLimiter counts failures in Redis; the counter expires window after the first failure.
func NewRedisLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &redisLoginLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

func (l *redisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < l.maxAttempts, nil
}

func (l *redisLoginLimiter) RecordFailure(ctx context.Context, key string) error {
	return recordFailureScript.Run(ctx, l.client, []string{l.key(key)}, l.window.Milliseconds()).Err()
}

func (l *redisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

func (l *redisLoginLimiter) key(account string) string {
	return "auth:login_failures:" + strings.ToLower(strings.TrimSpace(account))
}
