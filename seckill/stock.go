package seckill

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/seckill/connector"
	"github.com/ceyewan/seckill/xerrors"
)

// decrStockScript 仅在库存为正时扣减。
// 检查与扣减在服务端一次执行，保证任意并发下库存不会变成负数——
// 这是独立于分布式锁的第二道防线。
var decrStockScript = redis.NewScript(`
local stock = tonumber(redis.call("GET", KEYS[1]))
if stock == nil or stock <= 0 then
	return 0
end
redis.call("DECRBY", KEYS[1], 1)
return 1
`)

// StockStore 维护 Redis 中的秒杀库存计数
type StockStore struct {
	client *redis.Client
	prefix string
}

// NewStockStore 创建库存存储
func NewStockStore(conn connector.RedisConnector, prefix string) *StockStore {
	if prefix == "" {
		prefix = "seckill:stock:"
	}
	return &StockStore{
		client: conn.GetClient(),
		prefix: prefix,
	}
}

// Seed 写入（或重置）某券的库存计数
func (s *StockStore) Seed(ctx context.Context, voucherID int64, stock int) error {
	if err := s.client.Set(ctx, s.key(voucherID), stock, 0).Err(); err != nil {
		return xerrors.Wrapf(err, "seckill: seed stock for voucher %d failed", voucherID)
	}
	return nil
}

// Remaining 读取剩余库存
//
// 仅作快速过滤使用：读取与后续扣减之间没有原子性，真正的
// 越卖保护在 Decrement。计数不存在时按 0 处理。
func (s *StockStore) Remaining(ctx context.Context, voucherID int64) (int, error) {
	n, err := s.client.Get(ctx, s.key(voucherID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, xerrors.Wrapf(err, "seckill: read stock for voucher %d failed", voucherID)
	}
	return n, nil
}

// Decrement 原子地"检查为正并扣减一件"
//
// 返回 false 表示库存已经为零（或计数不存在），true 表示扣减成功。
func (s *StockStore) Decrement(ctx context.Context, voucherID int64) (bool, error) {
	result, err := decrStockScript.Run(ctx, s.client, []string{s.key(voucherID)}).Result()
	if err != nil {
		return false, xerrors.Wrapf(err, "seckill: decrement stock for voucher %d failed", voucherID)
	}
	return result.(int64) == 1, nil
}

// Restore 归还一件库存，用于扣减成功后订单落库失败的补偿
func (s *StockStore) Restore(ctx context.Context, voucherID int64) error {
	if err := s.client.IncrBy(ctx, s.key(voucherID), 1).Err(); err != nil {
		return xerrors.Wrapf(err, "seckill: restore stock for voucher %d failed", voucherID)
	}
	return nil
}

func (s *StockStore) key(voucherID int64) string {
	return fmt.Sprintf("%s%d", s.prefix, voucherID)
}
