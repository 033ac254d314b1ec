// Package signin 基于 Redis 位图实现按月的活跃打卡与连续天数统计。
//
// 每个实体每个自然月一个位图键 sign:<entityID>:<yyyyMM>，当月第 N 天
// 对应第 N 位（1 起始，第 0 位不用）。标记是幂等的：同一天重复打卡
// 只是把同一位再次置 1。统计时一次 BITFIELD 读回 1..当天 的所有位，
// 在本地从最低位向高位扫描，遇 0 即止。
package signin

import (
	"context"
	"fmt"
	"time"

	"github.com/ceyewan/seckill/cache"
	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/xerrors"
)

const keyLayout = "200601"

// Service 打卡服务
type Service struct {
	cache  cache.Cache
	prefix string
	logger clog.Logger

	// now 可替换，测试中用来冻结时钟
	now func() time.Time
}

// Option 定制 Service
type Option func(*Service)

// WithLogger 设置日志器
func WithLogger(logger clog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPrefix 覆盖键前缀，默认 "sign:"
func WithPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = prefix }
}

// withNow 替换时钟，仅测试使用
func withNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService 创建打卡服务
func NewService(c cache.Cache, opts ...Option) (*Service, error) {
	if c == nil {
		return nil, xerrors.New("signin: cache is required")
	}
	s := &Service{
		cache:  c,
		prefix: "sign:",
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = clog.Default()
	}
	return s, nil
}

// MarkActive 标记实体在当天活跃
func (s *Service) MarkActive(ctx context.Context, entityID int64) error {
	now := s.now()
	key := s.key(entityID, now)
	day := now.Day()

	if err := s.cache.SetBit(ctx, key, int64(day), 1); err != nil {
		return xerrors.Wrapf(err, "signin: mark entity %d active failed", entityID)
	}
	s.logger.DebugContext(ctx, "marked active",
		clog.Int64("entity_id", entityID),
		clog.Int("day", day))
	return nil
}

// CurrentStreak 返回截至当天的连续活跃天数
//
// 当天未打卡返回 0。统计范围不跨月：月初的连续天数从 1 重新累计。
func (s *Service) CurrentStreak(ctx context.Context, entityID int64) (int, error) {
	now := s.now()
	key := s.key(entityID, now)
	day := now.Day()

	// 读 1..day 位，返回值最低位对应当天
	bits, err := s.cache.BitFieldGet(ctx, key, day, 1)
	if err != nil {
		return 0, xerrors.Wrapf(err, "signin: read streak bits for entity %d failed", entityID)
	}
	return trailingStreak(bits, day), nil
}

func (s *Service) key(entityID int64, t time.Time) string {
	return fmt.Sprintf("%s%d:%s", s.prefix, entityID, t.Format(keyLayout))
}
