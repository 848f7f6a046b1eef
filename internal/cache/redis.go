package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Veraticus/dead-stock/internal/model"
)

const redisKeyPrefix = "deadstock:snapshot:"

// RedisBackend shares snapshots across processes. Keys expire after the
// store's retention window.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend creates a backend over an existing client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// DialRedis connects to addr, which may be a host:port or a redis:// URL.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Load fetches and decodes the user's snapshot.
func (b *RedisBackend) Load(ctx context.Context, userKey string) (*model.CacheSnapshot, bool, error) {
	data, err := b.client.Get(ctx, redisKeyPrefix+userKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var snap model.CacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, true, nil
}

// Save stores snap with the given expiry.
func (b *RedisBackend) Save(ctx context.Context, userKey string, snap *model.CacheSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := b.client.Set(ctx, redisKeyPrefix+userKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the user's snapshot.
func (b *RedisBackend) Delete(ctx context.Context, userKey string) error {
	if err := b.client.Del(ctx, redisKeyPrefix+userKey).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
