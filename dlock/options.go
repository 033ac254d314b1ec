package dlock

import (
	"time"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
)

// Option DLock 组件初始化选项函数
type Option func(*options)

type options struct {
	logger         clog.Logger
	identity       *Identity
	redisConnector connector.RedisConnector
	etcdConnector  connector.EtcdConnector
}

// WithLogger 注入日志记录器
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("dlock")
		}
	}
}

// WithIdentity 注入进程级持有者身份
//
// 不注入时每个 Locker 会自行创建一份；同一进程内的多个 Locker
// 共享身份时应显式传入。
func WithIdentity(id *Identity) Option {
	return func(o *options) {
		if id != nil {
			o.identity = id
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

// WithEtcdConnector 注入 Etcd 连接器
func WithEtcdConnector(conn connector.EtcdConnector) Option {
	return func(o *options) {
		if conn != nil {
			o.etcdConnector = conn
		}
	}
}

// LockOption 单次加锁操作的选项函数
type LockOption func(*lockOptions)

type lockOptions struct {
	TTL time.Duration
}

// WithTTL 覆盖本次加锁的租约时长
func WithTTL(ttl time.Duration) LockOption {
	return func(o *lockOptions) {
		o.TTL = ttl
	}
}
