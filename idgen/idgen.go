// Package idgen 提供基于 Redis 序列的全局唯一 ID 生成器。
//
// ID 为 64 位整数：高 31 位是相对纪元的秒级时间戳，低 32 位是
// 当天内的 Redis 自增序列。时间在高位保证了 ID 趋势递增，可直接
// 用作数据库主键；序列 Key 按天滚动，单业务单日容量 2^32。
package idgen

import (
	"context"
	"fmt"
	"time"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/xerrors"
)

const (
	// epochSecond 自定义纪元 2022-01-01T00:00:00Z
	epochSecond int64 = 1640995200

	// sequenceBits 序列号占用的位数
	sequenceBits = 32
)

// Generator 全局唯一 ID 生成器
type Generator struct {
	conn      connector.RedisConnector
	keyPrefix string
	logger    clog.Logger
	now       func() time.Time
}

// Option Generator 初始化选项函数
type Option func(*Generator)

// WithLogger 注入日志记录器
func WithLogger(l clog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l.WithNamespace("idgen")
		}
	}
}

// New 创建 ID 生成器
//
// keyPrefix 用于隔离不同应用的序列 Key，例如 "icr"。
func New(conn connector.RedisConnector, keyPrefix string, opts ...Option) (*Generator, error) {
	if conn == nil {
		return nil, xerrors.New("idgen: redis connector is nil")
	}
	if keyPrefix == "" {
		keyPrefix = "icr"
	}

	g := &Generator{
		conn:      conn,
		keyPrefix: keyPrefix,
		logger:    clog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// NextID 为指定业务生成下一个 ID
//
// 同一业务在同一天内共享一条自增序列。
func (g *Generator) NextID(ctx context.Context, biz string) (int64, error) {
	now := g.now().UTC()
	timestamp := now.Unix() - epochSecond

	key := fmt.Sprintf("%s:%s:%s", g.keyPrefix, biz, now.Format("2006:01:02"))
	seq, err := g.conn.GetClient().Incr(ctx, key).Result()
	if err != nil {
		return 0, xerrors.Wrapf(err, "idgen: incr %s failed", key)
	}

	return compose(timestamp, seq), nil
}

// compose 拼装时间戳与序列号
func compose(timestamp, sequence int64) int64 {
	return timestamp<<sequenceBits | sequence
}
