package cache

import (
	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
)

// Option 缓存组件初始化选项函数
type Option func(*options)

type options struct {
	logger         clog.Logger
	redisConnector connector.RedisConnector
}

// WithLogger 注入日志记录器
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("cache")
		}
	}
}

// WithRedisConnector 注入 Redis 连接器
func WithRedisConnector(conn connector.RedisConnector) Option {
	return func(o *options) {
		if conn != nil {
			o.redisConnector = conn
		}
	}
}
