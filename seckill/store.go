package seckill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
	"gorm.io/gorm"

	"github.com/ceyewan/seckill/cache"
	"github.com/ceyewan/seckill/clog"
	"github.com/ceyewan/seckill/db"
	"github.com/ceyewan/seckill/xerrors"
)

const (
	voucherCacheTTL   = 10 * time.Minute
	voucherLocalLimit = 4096
)

// Store 负责秒杀券与订单的持久化，以及券元数据的两级缓存。
//
// 券的销售窗口在创建后不变，适合缓存：本地 otter 缓存挡住热点券
// 的绝大多数读取，Redis 对象缓存在多实例间共享，数据库兜底。
type Store struct {
	db     db.DB
	cache  cache.Cache
	local  *otter.Cache[int64, *Voucher]
	logger clog.Logger
}

// NewStore 创建存储层
func NewStore(database db.DB, c cache.Cache, logger clog.Logger) (*Store, error) {
	if database == nil {
		return nil, xerrors.New("seckill: db is nil")
	}
	if logger == nil {
		logger = clog.Default()
	}

	local, err := otter.New(&otter.Options[int64, *Voucher]{
		MaximumSize:      voucherLocalLimit,
		ExpiryCalculator: otter.ExpiryWriting[int64, *Voucher](voucherCacheTTL),
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "seckill: build local voucher cache failed")
	}

	return &Store{
		db:     database,
		cache:  c,
		local:  local,
		logger: logger,
	}, nil
}

// Migrate 创建表结构
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Voucher{}, &VoucherOrder{})
}

// GetVoucher 读取券元数据：本地缓存 → Redis 缓存 → 数据库
func (s *Store) GetVoucher(ctx context.Context, voucherID int64) (*Voucher, error) {
	if v, ok := s.local.GetIfPresent(voucherID); ok {
		return v, nil
	}

	cacheKey := fmt.Sprintf("voucher:%d", voucherID)
	if s.cache != nil {
		var cached Voucher
		err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			s.local.Set(voucherID, &cached)
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			// 缓存故障不阻塞读取路径，降级到数据库
			s.logger.WarnContext(ctx, "voucher cache read failed", clog.Error(err))
		}
	}

	var v Voucher
	if err := s.db.DB(ctx).First(&v, voucherID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, xerrors.Wrapf(err, "seckill: load voucher %d failed", voucherID)
	}

	s.local.Set(voucherID, &v)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, &v, voucherCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "voucher cache write failed", clog.Error(err))
		}
	}
	return &v, nil
}

// CreateVoucher 持久化一张新券
func (s *Store) CreateVoucher(ctx context.Context, v *Voucher) error {
	if err := s.db.DB(ctx).Create(v).Error; err != nil {
		return xerrors.Wrapf(err, "seckill: create voucher failed")
	}
	s.local.Invalidate(v.ID)
	return nil
}

// HasOrder 判断用户是否已持有该券的订单
func (s *Store) HasOrder(ctx context.Context, voucherID, userID int64) (bool, error) {
	var count int64
	err := s.db.DB(ctx).Model(&VoucherOrder{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID).
		Count(&count).Error
	if err != nil {
		return false, xerrors.Wrapf(err, "seckill: count orders for voucher %d user %d failed", voucherID, userID)
	}
	return count > 0, nil
}

// CreateOrder 在一个事务内落库订单并镜像扣减数据库库存
//
// 数据库侧的 stock > 0 条件更新与 (voucher_id, user_id) 唯一索引
// 一起构成锁层之外的最终防线。
func (s *Store) CreateOrder(ctx context.Context, order *VoucherOrder) error {
	return s.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		result := tx.Model(&Voucher{}).
			Where("id = ? AND stock > 0", order.VoucherID).
			UpdateColumn("stock", gorm.Expr("stock - ?", 1))
		if result.Error != nil {
			return xerrors.Wrapf(result.Error, "seckill: decrement db stock for voucher %d failed", order.VoucherID)
		}
		if result.RowsAffected == 0 {
			return ErrSoldOut
		}

		if err := tx.Create(order).Error; err != nil {
			return xerrors.Wrapf(err, "seckill: insert order %d failed", order.ID)
		}
		return nil
	})
}
