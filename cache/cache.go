// Package cache 提供基于 Redis 的对象缓存与位图操作。
//
// 对象读写经过可配置的序列化器（json | msgpack）；位图操作
// （SetBit / BitFieldGet）面向按位打包的活跃标记等场景，直接
// 操作原始字符串值，不经过序列化。
//
// 基本使用：
//
//	c, _ := cache.New(&cache.Config{
//	    Prefix:     "seckill:",
//	    Serializer: "msgpack",
//	}, cache.WithRedisConnector(conn), cache.WithLogger(logger))
//
//	err := c.Set(ctx, "voucher:1", voucher, time.Hour)
//
//	var cached Voucher
//	err = c.Get(ctx, "voucher:1", &cached)
package cache

import (
	"context"
	"time"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/xerrors"
)

// Cache 定义了缓存组件的核心能力
type Cache interface {
	// --- Key-Value ---
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// --- Bitmap ---

	// SetBit 将 key 的第 offset 位设置为 0 或 1
	SetBit(ctx context.Context, key string, offset int64, value int) error

	// BitFieldGet 读取 key 从第 offset 位开始的 width 位，
	// 按无符号整数返回（最高位在前）。key 不存在时返回 0。
	BitFieldGet(ctx context.Context, key string, width int, offset int64) (uint64, error)

	// --- Utility ---
	Close() error
}

// New 根据配置创建缓存实例
//
// 需要通过 WithRedisConnector 注入 Redis 连接器。
func New(cfg *Config, opts ...Option) (Cache, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Default()
	}
	if opt.redisConnector == nil {
		return nil, xerrors.New("cache: redis connector is required, use WithRedisConnector")
	}

	return newRedis(opt.redisConnector, cfg, opt.logger)
}
