package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache is a Redis-backed Cache, grounded on the connection-pool and
// health-check shape of a conventional go-redis manager. Tag membership is
// tracked with a Redis set per tag, keyed under a fixed prefix so it never
// collides with the cached values themselves.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache dials addr/db with the given password and confirms
// reachability with a bounded ping before returning.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an already-constructed client, used by
// tests that point at a miniredis instance.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func tagSetKey(tag string) string {
	return "tag:" + tag
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return val, true, nil
}

// Put writes value with ttl and registers key under every tag's set so a
// later InvalidateByTag can find it. The tag sets themselves never expire;
// membership is pruned lazily as invalidation walks them.
func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagSetKey(tag), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// InvalidateByTag deletes every key registered under tag, then the tag set
// itself. Keys that already expired naturally are simply no-ops on DEL.
func (c *RedisCache) InvalidateByTag(ctx context.Context, tag string) error {
	setKey := tagSetKey(tag)
	members, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("cache invalidate tag %q: %w", tag, err)
	}
	if len(members) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, members...)
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate tag %q: %w", tag, err)
	}

	log.Debug().Str("tag", tag).Int("count", len(members)).Msg("invalidated cache entries by tag")
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
