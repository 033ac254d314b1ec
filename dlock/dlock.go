// Package dlock 提供跨进程的分布式互斥锁。
//
// 锁以共享存储（Redis 或 Etcd）中的一条带过期时间的租约表示：
// 任一时刻同名租约至多存在一份。TryLock 是非阻塞的单次尝试，
// 抢不到锁属于正常结果而非错误；重试与退避策略由调用方决定。
//
// Redis 后端的正确性核心是"持有者校验释放"：Unlock 通过服务端
// Lua 脚本原子地完成 读取-比较-删除，持有者令牌不匹配时不做任何事，
// 避免租约过期后误删他人新获取的租约。
//
// 基本使用：
//
//	locker, _ := dlock.New(&dlock.Config{
//	    Driver:     dlock.DriverRedis,
//	    Prefix:     "lock:",
//	    DefaultTTL: 30 * time.Second,
//	}, dlock.WithRedisConnector(conn), dlock.WithLogger(logger))
//	defer locker.Close()
//
//	ok, err := locker.TryLock(ctx, "order:1:1001")
//	if err != nil || !ok {
//	    return
//	}
//	defer locker.Unlock(ctx, "order:1:1001")
package dlock

import (
	"context"
	"time"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/xerrors"
)

// DriverType 定义支持的后端类型
type DriverType string

const (
	DriverRedis DriverType = "redis"
	DriverEtcd  DriverType = "etcd"
)

// Config 组件静态配置
type Config struct {
	// Driver 选择使用的后端 (redis | etcd)
	Driver DriverType `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Prefix 锁 Key 的全局前缀，例如 "lock:"
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// DefaultTTL 默认租约时长。TTL 是持有者崩溃后的安全阀，
	// 必须显著长于预期的临界区耗时。
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`

	// EnableWatchdog 开启 Redis 后端的租约自动续期。
	// 默认关闭：关闭时租约到期即失效，临界区超时("overrun")由
	// 存储侧的原子操作兜底。
	EnableWatchdog bool `json:"enable_watchdog" yaml:"enable_watchdog" mapstructure:"enable_watchdog"`
}

func (c *Config) setDefaults() {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c == nil {
		return ErrConfigNil
	}
	switch c.Driver {
	case DriverRedis, DriverEtcd:
		return nil
	case "":
		return xerrors.New("dlock: driver is required")
	default:
		return xerrors.New("dlock: unsupported driver: " + string(c.Driver))
	}
}

// Locker 定义了分布式锁的核心行为
type Locker interface {
	// TryLock 非阻塞式尝试加锁
	//
	// 成功获取锁返回 true, nil；锁已被占用返回 false, nil；
	// 存储不可达等基础设施故障返回 false, err——调用方必须把
	// 这两种失败区分开，后者不代表"锁被持有"。
	//
	// opts 支持的选项:
	//   - WithTTL(duration): 覆盖本次租约时长
	TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error)

	// Unlock 释放锁
	//
	// 只有当前持有者的令牌才能删除租约；租约已不存在或已被他人
	// 持有时，Unlock 是安全的空操作（返回 nil）。只有与存储交互
	// 失败时返回错误。
	Unlock(ctx context.Context, key string) error

	// Close 关闭 Locker，释放底层资源
	// 对于 Etcd 会关闭 session，对于 Redis 是 no-op
	Close() error
}

// New 根据配置创建 Locker
//
// Redis 后端需要 WithRedisConnector，Etcd 后端需要 WithEtcdConnector。
func New(cfg *Config, opts ...Option) (Locker, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	opt := &options{}
	for _, o := range opts {
		o(opt)
	}
	if opt.logger == nil {
		opt.logger = clog.Default()
	}
	if opt.identity == nil {
		opt.identity = NewIdentity()
	}

	switch cfg.Driver {
	case DriverRedis:
		if opt.redisConnector == nil {
			return nil, ErrConnectorNil
		}
		return newRedis(opt.redisConnector, cfg, opt.identity, opt.logger)
	case DriverEtcd:
		if opt.etcdConnector == nil {
			return nil, ErrConnectorNil
		}
		return newEtcd(opt.etcdConnector, cfg, opt.logger)
	default:
		return nil, xerrors.New("dlock: unsupported driver: " + string(cfg.Driver))
	}
}
