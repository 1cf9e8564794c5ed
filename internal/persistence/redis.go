package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/hospitality-auth/internal/config"
)

const (
	redisDialTimeout = 2 * time.Second
	redisIOTimeout   = time.Second
)

// Redis is the shared handle behind the login limiter and the terminal session store.
// The client dials lazily; use Probe or WaitReady to check the server.
type Redis struct {
	Client *redis.Client
	addr   string
}

// NewRedis builds a client for cfg without contacting the server.
func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{
		Client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  redisDialTimeout,
			ReadTimeout:  redisIOTimeout,
			WriteTimeout: redisIOTimeout,
		}),
		addr: cfg.Addr,
	}
}

// Probe pings once and logs the outcome. The API keeps serving without Redis;
// login throttling fails open until it returns.
func (r *Redis) Probe(ctx context.Context, logger *zap.Logger) bool {
	if err := r.Ping(ctx); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", r.addr), zap.Error(err))
		return false
	}
	logger.Info("connected to redis", zap.String("addr", r.addr))
	return true
}

// WaitReady pings up to attempts times, sleeping backoff in between.
// A terminal storing sessions in Redis cannot start without it.
func (r *Redis) WaitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = r.Ping(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis %s unreachable after %d attempts: %w", r.addr, attempts, err)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
