package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/seckill/cache/serializer"
	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/xerrors"
)

type redisCache struct {
	client     *redis.Client
	serializer serializer.Serializer
	prefix     string
	logger     clog.Logger
}

// newRedis 创建 Redis 缓存实例
func newRedis(conn connector.RedisConnector, cfg *Config, logger clog.Logger) (Cache, error) {
	s, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, xerrors.Wrap(err, "cache: create serializer failed")
	}

	return &redisCache{
		client:     conn.GetClient(),
		serializer: s,
		prefix:     cfg.Prefix,
		logger:     logger,
	}, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return xerrors.Wrapf(err, "cache: marshal %s failed", key)
	}
	if err := c.client.Set(ctx, c.buildKey(key), data, ttl).Err(); err != nil {
		return xerrors.Wrapf(err, "cache: set %s failed", key)
	}
	return nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, c.buildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return xerrors.Wrapf(err, "cache: get %s failed", key)
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return xerrors.Wrapf(err, "cache: unmarshal %s failed", key)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.buildKey(key)).Err(); err != nil {
		return xerrors.Wrapf(err, "cache: delete %s failed", key)
	}
	return nil
}

func (c *redisCache) Has(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.buildKey(key)).Result()
	if err != nil {
		return false, xerrors.Wrapf(err, "cache: exists %s failed", key)
	}
	return n > 0, nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, c.buildKey(key), ttl).Err(); err != nil {
		return xerrors.Wrapf(err, "cache: expire %s failed", key)
	}
	return nil
}

func (c *redisCache) SetBit(ctx context.Context, key string, offset int64, value int) error {
	if err := c.client.SetBit(ctx, c.buildKey(key), offset, value).Err(); err != nil {
		return xerrors.Wrapf(err, "cache: setbit %s failed", key)
	}
	return nil
}

func (c *redisCache) BitFieldGet(ctx context.Context, key string, width int, offset int64) (uint64, error) {
	if width <= 0 || width > 63 {
		return 0, xerrors.Wrapf(xerrors.ErrInvalidInput, "cache: bitfield width %d", width)
	}
	vals, err := c.client.BitField(ctx, c.buildKey(key),
		"GET", fmt.Sprintf("u%d", width), offset).Result()
	if err != nil {
		return 0, xerrors.Wrapf(err, "cache: bitfield %s failed", key)
	}
	if len(vals) == 0 {
		return 0, nil
	}
	return uint64(vals[0]), nil
}

func (c *redisCache) buildKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + key
}

// Close 关闭缓存
//
// 缓存不拥有底层连接，因此是 no-op。
func (c *redisCache) Close() error {
	return nil
}
