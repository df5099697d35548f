package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanCount is the COUNT hint passed to SCAN
const scanCount = 1000

// RedisOptions locates a Redis server
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis is a Client backed by a Redis server
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with PING
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &Redis{client: client}, nil
}

// SetWithTTL stores value under key with SET EX semantics
func (r *Redis) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get returns the value for key; a missing key is not an error
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// ScanKeys iterates with SCAN rather than KEYS so large keyspaces don't
// block the server. SCAN may repeat a key across pages; each key is
// returned once.
func (r *Redis) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	iter := r.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = appendUnique(keys, seen, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return keys, nil
}

// Delete removes keys and reports how many existed
func (r *Redis) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	return int(n), nil
}

// Len reports the number of keys in the selected database
func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("redis dbsize: %w", err)
	}
	return int(n), nil
}

// Close closes the client connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}

// appendUnique appends key unless seen already holds it
func appendUnique(keys []string, seen map[string]struct{}, key string) []string {
	if _, dup := seen[key]; dup {
		return keys
	}
	seen[key] = struct{}{}
	return append(keys, key)
}
