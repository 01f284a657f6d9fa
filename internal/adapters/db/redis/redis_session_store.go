package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps a client's session keys under one namespace, so
// several CLI profiles or hosts can share a Redis without clashing.
type RedisSessionStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisSessionStore stores keys as "<namespace>:<key>". A zero ttl keeps
// them until removed; otherwise every Save restarts the clock.
func NewRedisSessionStore(client *redis.Client, namespace string, ttl time.Duration) *RedisSessionStore {
	if namespace == "" {
		namespace = "session"
	}
	return &RedisSessionStore{client: client, namespace: namespace, ttl: ttl}
}

func (r *RedisSessionStore) key(k string) string {
	return r.namespace + ":" + k
}

func (r *RedisSessionStore) Load(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if s, ok := v.(string); ok { // nil means the key is missing
			out[keys[i]] = s
		}
	}
	return out, nil
}

// Save writes all values in one MULTI/EXEC so readers never see half a session.
func (r *RedisSessionStore) Save(ctx context.Context, values map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range values {
			p.Set(ctx, r.key(k), v, r.ttl)
		}
		return nil
	})
	return err
}

func (r *RedisSessionStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(ctx, full...).Err()
}
