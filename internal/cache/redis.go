package cache

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"OptionsFlowMap/internal/logger"
	"OptionsFlowMap/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "oiflow:snapshot:"

// RedisCache stores snapshots in Redis with a server-side TTL, so expiry
// needs no local housekeeping.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Entry
}

// NewRedisCache connects to the Redis at url and verifies the connection.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    logger.GetLogger().WithComponent("cache"),
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.OiSnapshot, bool) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("redis get failed, treating as miss")
		}
		return nil, false
	}
	var snap model.OiSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		c.log.WithError(err).Warn("corrupt cache entry, treating as miss")
		return nil, false
	}
	return &snap, true
}

func (c *RedisCache) Put(ctx context.Context, key string, snap *model.OiSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
