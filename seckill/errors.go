package seckill

import (
	"errors"

	"github.com/ceyewan/seckill/xerrors"
)

// 业务拒绝（不可重试）与竞争失败（可由调用方重试）的错误分类。
// 基础设施故障不在此列，表现为其他非 nil 错误。
var (
	// ErrVoucherNotFound 秒杀券不存在
	ErrVoucherNotFound = xerrors.New("seckill: voucher not found")

	// ErrNotStarted 秒杀尚未开始
	ErrNotStarted = xerrors.New("seckill: sale has not started")

	// ErrEnded 秒杀已结束
	ErrEnded = xerrors.New("seckill: sale has ended")

	// ErrSoldOut 库存不足
	ErrSoldOut = xerrors.New("seckill: sold out")

	// ErrAlreadyPurchased 同一用户重复购买
	ErrAlreadyPurchased = xerrors.New("seckill: already purchased")

	// ErrInFlight 同一用户的另一请求正在处理中，可稍后重试
	ErrInFlight = xerrors.New("seckill: purchase in flight, try again")
)

// Reason 把错误映射为对外的原因码
//
// 空字符串表示不属于业务拒绝/竞争失败，应按基础设施故障处理。
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrVoucherNotFound):
		return "VOUCHER_NOT_FOUND"
	case errors.Is(err, ErrNotStarted):
		return "NOT_STARTED"
	case errors.Is(err, ErrEnded):
		return "ENDED"
	case errors.Is(err, ErrSoldOut):
		return "SOLD_OUT"
	case errors.Is(err, ErrAlreadyPurchased):
		return "ALREADY_PURCHASED"
	case errors.Is(err, ErrInFlight):
		return "IN_FLIGHT"
	default:
		return ""
	}
}

// Retryable 竞争失败可由调用方重试，业务拒绝不可
func Retryable(err error) bool {
	return errors.Is(err, ErrInFlight)
}
