package dlock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/xerrors"
)

// unlockScript 原子地完成 读取-比较-删除。
// 比较与删除必须在服务端一次执行：拆成两次往返的话，另一个进程
// 可能在 GET 和 DEL 之间拿到同名租约，随后被本方误删。
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// renewScript 校验持有权后刷新过期时间，供 watchdog 使用
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)

type redisLocker struct {
	client   *redis.Client
	cfg      *Config
	identity *Identity
	logger   clog.Logger
	locks    map[string]*redisLockEntry
	mu       sync.Mutex
}

type redisLockEntry struct {
	key        string
	token      string
	expiration time.Duration
	renewStop  chan struct{}
	renewDone  chan struct{}
}

// newRedis 创建 Redis Locker 实例
func newRedis(conn connector.RedisConnector, cfg *Config, identity *Identity, logger clog.Logger) (Locker, error) {
	if conn == nil {
		return nil, ErrConnectorNil
	}

	return &redisLocker{
		client:   conn.GetClient(),
		cfg:      cfg,
		identity: identity,
		logger:   logger,
		locks:    make(map[string]*redisLockEntry),
	}, nil
}

func (l *redisLocker) TryLock(ctx context.Context, key string, opts ...LockOption) (bool, error) {
	options := &lockOptions{TTL: l.cfg.DefaultTTL}
	for _, opt := range opts {
		opt(options)
	}
	if options.TTL <= 0 {
		options.TTL = l.cfg.DefaultTTL
	}

	// 本进程已登记同名锁时直接视作竞争失败，不再访问存储。
	// 这同时防止了后登记覆盖先登记的令牌。
	l.mu.Lock()
	if _, exists := l.locks[key]; exists {
		l.mu.Unlock()
		return false, nil
	}
	l.mu.Unlock()

	token := l.identity.Token()
	redisKey := l.redisKey(key)

	success, err := l.client.SetNX(ctx, redisKey, token, options.TTL).Result()
	if err != nil {
		// 存储不可达是"未知"，不是"锁被持有"
		return false, xerrors.Wrapf(err, "dlock: acquire %s failed", key)
	}
	if !success {
		return false, nil
	}

	entry := &redisLockEntry{
		key:        key,
		token:      token,
		expiration: options.TTL,
	}

	l.mu.Lock()
	if _, exists := l.locks[key]; exists {
		// 与另一条执行流竞争登记（对方刚好在本方 SetNX 期间登记成功
		// 是不可能的，因为远端租约唯一；这里只是防御本地状态异常），
		// 回滚刚建立的远端租约。
		l.mu.Unlock()
		_, _ = unlockScript.Run(ctx, l.client, []string{redisKey}, token).Result()
		return false, nil
	}
	if l.cfg.EnableWatchdog {
		entry.renewStop = make(chan struct{})
		entry.renewDone = make(chan struct{})
	}
	l.locks[key] = entry
	l.mu.Unlock()

	if l.cfg.EnableWatchdog {
		go l.watchdog(entry, redisKey)
	}

	l.logger.DebugContext(ctx, "lock acquired",
		clog.String("key", key),
		clog.Duration("ttl", options.TTL))
	return true, nil
}

func (l *redisLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	entry, exists := l.locks[key]
	if exists {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	if !exists {
		// 释放未持有的锁是合法的空操作
		l.logger.DebugContext(ctx, "unlock of unheld lock ignored", clog.String("key", key))
		return nil
	}

	if entry.renewStop != nil {
		close(entry.renewStop)
		<-entry.renewDone
	}

	result, err := unlockScript.Run(ctx, l.client, []string{l.redisKey(key)}, entry.token).Result()
	if err != nil {
		return xerrors.Wrapf(err, "dlock: release %s failed", key)
	}

	if result.(int64) == 0 {
		// 租约已过期或已被他人持有：按契约不做任何删除
		l.logger.WarnContext(ctx, "lease no longer owned at release", clog.String("key", key))
		return nil
	}

	l.logger.DebugContext(ctx, "lock released", clog.String("key", key))
	return nil
}

// watchdog 周期性续期租约，直到 Unlock 或失去持有权
func (l *redisLocker) watchdog(entry *redisLockEntry, redisKey string) {
	defer close(entry.renewDone)

	renewInterval := entry.expiration / 3
	if renewInterval < 100*time.Millisecond {
		renewInterval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-entry.renewStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			res, err := renewScript.Run(ctx, l.client,
				[]string{redisKey}, entry.token, entry.expiration.Milliseconds()).Result()
			cancel()

			if err != nil {
				l.logger.Error("watchdog renew failed", clog.String("key", entry.key), clog.Error(err))
				return
			}
			if res.(int64) == 0 {
				l.logger.Warn("watchdog lost ownership", clog.String("key", entry.key))
				return
			}
		}
	}
}

func (l *redisLocker) redisKey(key string) string {
	if l.cfg.Prefix != "" {
		return l.cfg.Prefix + key
	}
	return key
}

// Close 关闭 Redis Locker
//
// 停止所有续期协程。不删除远端租约：未显式释放的租约交由 TTL 过期。
func (l *redisLocker) Close() error {
	l.mu.Lock()
	entries := make([]*redisLockEntry, 0, len(l.locks))
	for _, e := range l.locks {
		entries = append(entries, e)
	}
	l.locks = make(map[string]*redisLockEntry)
	l.mu.Unlock()

	for _, e := range entries {
		if e.renewStop != nil {
			close(e.renewStop)
			<-e.renewDone
		}
	}
	return nil
}
