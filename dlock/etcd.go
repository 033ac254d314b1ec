package dlock

import (
	"context"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/xerrors"
)

// etcdLocker 基于 etcd session 的 Locker 实现。
//
// etcd 的 session lease 天然具备"持有者校验释放"语义：
// mutex 绑定在本方 session 上，无法误删他人的锁。
type etcdLocker struct {
	client  *clientv3.Client
	session *concurrency.Session
	cfg     *Config
	logger  clog.Logger
	locks   map[string]*concurrency.Mutex
	mu      sync.Mutex
}

// newEtcd 创建 Etcd Locker 实例
func newEtcd(conn connector.EtcdConnector, cfg *Config, logger clog.Logger) (Locker, error) {
	if conn == nil {
		return nil, ErrConnectorNil
	}

	client := conn.GetClient()
	// session 自动续期，TTL 仅在持有者进程消失后生效
	session, err := concurrency.NewSession(client, concurrency.WithTTL(int(cfg.DefaultTTL.Seconds())))
	if err != nil {
		return nil, xerrors.Wrap(err, "dlock: create etcd session failed")
	}

	return &etcdLocker{
		client:  client,
		session: session,
		cfg:     cfg,
		logger:  logger,
		locks:   make(map[string]*concurrency.Mutex),
	}, nil
}

func (l *etcdLocker) TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error) {
	l.mu.Lock()
	if _, exists := l.locks[key]; exists {
		l.mu.Unlock()
		return false, nil
	}
	l.mu.Unlock()

	mutex := concurrency.NewMutex(l.session, l.etcdKey(key))

	if err := mutex.TryLock(ctx); err != nil {
		if err == concurrency.ErrLocked {
			return false, nil
		}
		return false, xerrors.Wrapf(err, "dlock: acquire %s failed", key)
	}

	l.mu.Lock()
	l.locks[key] = mutex
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "lock acquired", clog.String("key", key))
	return true, nil
}

func (l *etcdLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	mutex, exists := l.locks[key]
	if exists {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	if !exists {
		l.logger.DebugContext(ctx, "unlock of unheld lock ignored", clog.String("key", key))
		return nil
	}

	if err := mutex.Unlock(ctx); err != nil {
		return xerrors.Wrapf(err, "dlock: release %s failed", key)
	}

	l.logger.DebugContext(ctx, "lock released", clog.String("key", key))
	return nil
}

func (l *etcdLocker) etcdKey(key string) string {
	if l.cfg.Prefix != "" {
		return l.cfg.Prefix + key
	}
	return key
}

// Close 关闭 session，session 关联的所有租约随之失效
func (l *etcdLocker) Close() error {
	return l.session.Close()
}
