// Package ratelimit 提供基于 Redis 的分布式限流。
//
// 采用时间戳形式的令牌桶：Redis 中每个键只保存"下一次允许放行的
// 时间戳"，判定与更新在 Lua 脚本里一次完成，多实例共享同一配额。
// 秒杀开闸瞬间的洪峰先经过这里削平，再进入下单链路。
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/xerrors"
)

// bucketScript 令牌桶判定脚本
//
// KEYS[1] 限流键；ARGV: 速率、桶容量、当前时间戳(秒.毫秒)、本次
// 消耗令牌数。返回 {是否放行, 剩余令牌数}。
const bucketScript = `
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local interval_per_token = 1 / rate
local fill_time = capacity * interval_per_token

local last_refreshed = tonumber(redis.call("GET", KEYS[1]))
if last_refreshed == nil then
  last_refreshed = now
end

local next_available_time = math.max(last_refreshed, now)
local new_refreshed = next_available_time + requested * interval_per_token
local allow_at_most = now + fill_time

if new_refreshed <= allow_at_most then
  redis.call("SET", KEYS[1], new_refreshed, "EX", math.ceil(fill_time * 2))
  local remaining = math.floor((allow_at_most - new_refreshed) / interval_per_token)
  return {1, remaining}
else
  local remaining = math.floor((allow_at_most - next_available_time) / interval_per_token)
  return {0, remaining}
end
`

// Limit 令牌桶规则
type Limit struct {
	// Rate 每秒生成的令牌数
	Rate float64 `json:"rate" yaml:"rate" mapstructure:"rate"`
	// Burst 桶容量，允许的突发请求数
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

func (l Limit) valid() bool {
	return l.Rate > 0 && l.Burst > 0
}

// Limiter 分布式限流器
type Limiter struct {
	client *redis.Client
	prefix string
	script *redis.Script
	logger clog.Logger
	now    func() time.Time
}

// Option 定制 Limiter
type Option func(*Limiter)

// WithLogger 设置日志器
func WithLogger(logger clog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New 创建限流器，prefix 为空时默认 "ratelimit:"
func New(conn connector.RedisConnector, prefix string, opts ...Option) (*Limiter, error) {
	if conn == nil {
		return nil, xerrors.New("ratelimit: redis connector is required")
	}
	if prefix == "" {
		prefix = "ratelimit:"
	}

	l := &Limiter{
		client: conn.GetClient(),
		prefix: prefix,
		script: redis.NewScript(bucketScript),
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	if l.logger == nil {
		l.logger = clog.Default()
	}
	return l, nil
}

// Allow 尝试获取 1 个令牌，非阻塞
//
// 限流拒绝返回 false, nil；Redis 故障返回错误，由调用方决定
// 降级策略（放行或拒绝）。
func (l *Limiter) Allow(ctx context.Context, key string, limit Limit) (bool, error) {
	if key == "" {
		return false, xerrors.New("ratelimit: key is empty")
	}
	if !limit.valid() {
		return false, xerrors.Wrapf(xerrors.ErrInvalidInput, "ratelimit: rate=%v burst=%d", limit.Rate, limit.Burst)
	}

	now := float64(l.now().UnixMicro()) / 1e6
	res, err := l.script.Run(ctx, l.client,
		[]string{l.prefix + key},
		limit.Rate, limit.Burst, now, 1).Result()
	if err != nil {
		return false, xerrors.Wrapf(err, "ratelimit: check %s failed", key)
	}

	values := res.([]interface{})
	return values[0].(int64) == 1, nil
}
