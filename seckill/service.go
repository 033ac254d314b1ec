// Package seckill 实现限量券的秒杀下单。
//
// 下单链路：销售窗口检查 → 库存快速过滤 → (券,用户) 粒度分布式锁 →
// 重复购买检查 → Redis 原子扣减库存 → 订单落库 → 释放锁。
//
// 正确性不依赖任何单一环节：锁保证同一用户的请求串行化，Lua 扣减
// 保证库存不为负，数据库唯一索引与条件更新作为最终兜底。
package seckill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/dlock"
	"github.com/ceyewan/seckill/idgen"
	"github.com/ceyewan/seckill/xerrors"
)

const orderIDBiz = "order"

// Service 秒杀下单服务
type Service struct {
	store   *Store
	stock   *StockStore
	locker  dlock.Locker
	idgen   *idgen.Generator
	metrics *Metrics
	logger  clog.Logger

	now func() time.Time
}

// NewService 创建秒杀服务
func NewService(store *Store, stock *StockStore, locker dlock.Locker, gen *idgen.Generator, opts ...ServiceOption) (*Service, error) {
	if store == nil || stock == nil || locker == nil || gen == nil {
		return nil, xerrors.New("seckill: store, stock, locker and idgen are all required")
	}

	s := &Service{
		store:  store,
		stock:  stock,
		locker: locker,
		idgen:  gen,
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

// ServiceOption 定制 Service
type ServiceOption func(*Service)

// WithServiceLogger 设置日志器
func WithServiceLogger(logger clog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics 设置指标收集
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// CreateVoucher 创建一张秒杀券并预热 Redis 库存计数
func (s *Service) CreateVoucher(ctx context.Context, v *Voucher) error {
	if v == nil {
		return xerrors.WithCode(xerrors.New("seckill: voucher is nil"), "INVALID_INPUT")
	}
	if v.Stock < 0 {
		return xerrors.WithCode(xerrors.New("seckill: stock must be non-negative"), "INVALID_INPUT")
	}
	if !v.EndTime.After(v.BeginTime) {
		return xerrors.WithCode(xerrors.New("seckill: end time must be after begin time"), "INVALID_INPUT")
	}

	if v.ID == 0 {
		id, err := s.idgen.NextID(ctx, "voucher")
		if err != nil {
			return err
		}
		v.ID = id
	}

	if err := s.store.CreateVoucher(ctx, v); err != nil {
		return err
	}
	if err := s.stock.Seed(ctx, v.ID, v.Stock); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "voucher created",
		clog.Int64("voucher_id", v.ID),
		clog.Int("stock", v.Stock))
	return nil
}

// Purchase 为用户购买一张秒杀券
//
// 成功返回新建订单；业务拒绝返回哨兵错误（ErrSoldOut、
// ErrAlreadyPurchased 等），可用 Reason 取原因码；其余错误为
// 基础设施故障。
func (s *Service) Purchase(ctx context.Context, voucherID, userID int64) (order *VoucherOrder, err error) {
	start := s.now()
	defer func() { s.metrics.observe(start, err) }()

	voucher, err := s.store.GetVoucher(ctx, voucherID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.Before(voucher.BeginTime) {
		return nil, ErrNotStarted
	}
	if now.After(voucher.EndTime) {
		return nil, ErrEnded
	}

	// 快速过滤：明显售罄时不必竞争锁。真正的越卖保护在后面的原子扣减。
	remaining, err := s.stock.Remaining(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return nil, ErrSoldOut
	}

	lockKey := fmt.Sprintf("order:%d:%d", voucherID, userID)
	ok, err := s.locker.TryLock(ctx, lockKey)
	if err != nil {
		return nil, xerrors.Wrapf(err, "seckill: acquire order lock %s failed", lockKey)
	}
	if !ok {
		return nil, ErrInFlight
	}
	defer func() {
		if uerr := s.locker.Unlock(ctx, lockKey); uerr != nil {
			// 租约会随 TTL 过期，这里只记录不向调用方上抛
			s.logger.WarnContext(ctx, "release order lock failed",
				clog.String("lock_key", lockKey), clog.Error(uerr))
		}
	}()

	return s.purchaseLocked(ctx, voucherID, userID)
}

// purchaseLocked 在持有 (券,用户) 锁的前提下完成下单
func (s *Service) purchaseLocked(ctx context.Context, voucherID, userID int64) (*VoucherOrder, error) {
	purchased, err := s.store.HasOrder(ctx, voucherID, userID)
	if err != nil {
		return nil, err
	}
	if purchased {
		return nil, ErrAlreadyPurchased
	}

	decremented, err := s.stock.Decrement(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if !decremented {
		return nil, ErrSoldOut
	}

	orderID, err := s.idgen.NextID(ctx, orderIDBiz)
	if err != nil {
		s.restoreStock(ctx, voucherID)
		return nil, err
	}

	order := &VoucherOrder{
		ID:        orderID,
		VoucherID: voucherID,
		UserID:    userID,
		Status:    OrderStatusUnpaid,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.restoreStock(ctx, voucherID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyPurchased
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "voucher purchased",
		clog.Int64("order_id", orderID),
		clog.Int64("voucher_id", voucherID),
		clog.Int64("user_id", userID))
	return order, nil
}

// restoreStock 补偿：扣减成功但订单未能落库时归还一件库存
func (s *Service) restoreStock(ctx context.Context, voucherID int64) {
	if err := s.stock.Restore(ctx, voucherID); err != nil {
		s.logger.ErrorContext(ctx, "restore stock failed, counter may understate stock",
			clog.Int64("voucher_id", voucherID), clog.Error(err))
	}
}
