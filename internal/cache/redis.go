package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/DummAir/DummAirApp-sub001/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

// AcquireDispatchLock claims the one send slot for a (order, event) pair.
// Returns false when another dispatch already holds it, which callers treat
// as "this event's side effects were already performed".
func (c *RedisCache) AcquireDispatchLock(ctx context.Context, orderID, eventType string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, dispatchKey(orderID, eventType), "sent", ttl).Result()
}

func (c *RedisCache) ReleaseDispatchLock(ctx context.Context, orderID, eventType string) error {
	return c.client.Del(ctx, dispatchKey(orderID, eventType)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func dispatchKey(orderID, eventType string) string {
	return fmt.Sprintf("notify:%s:%s", orderID, eventType)
}
