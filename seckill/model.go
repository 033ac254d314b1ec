package seckill

import "time"

// 订单状态
const (
	OrderStatusUnpaid   = 1 // 待支付
	OrderStatusPaid     = 2 // 已支付
	OrderStatusCanceled = 3 // 已取消
)

// Voucher 限量秒杀券
//
// Stock 为剩余库存，只会单调递减；销售窗口为 [BeginTime, EndTime]。
type Voucher struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Stock     int       `gorm:"not null" json:"stock"`
	BeginTime time.Time `gorm:"not null" json:"begin_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "seckill_voucher"
}

// VoucherOrder 一次成功购买的记录
//
// (voucher_id, user_id) 上的唯一索引是"一人一单"的数据库级兜底：
// 即使锁层被绕过，同一用户也无法插入第二条订单。
type VoucherOrder struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	VoucherID int64     `gorm:"uniqueIndex:uk_voucher_user;not null" json:"voucher_id"`
	UserID    int64     `gorm:"uniqueIndex:uk_voucher_user;not null" json:"user_id"`
	Status    int       `gorm:"not null;default:1" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (VoucherOrder) TableName() string {
	return "voucher_order"
}
