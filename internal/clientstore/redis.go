package clientstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "pos"

// RedisStore keeps values in Redis under a per-terminal namespace,
// letting several tills on one host share a backing server.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore namespaces keys as "session:<namespace>:<key>".
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisStore{client: client, prefix: "session:" + namespace + ":"}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.client.Del(ctx, full...).Err()
}
