// Package server 提供 HTTP 接入层：gin 路由、请求解析与错误到
// 状态码的映射。处理器只依赖窄接口，不感知底层存储。
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/seckill/seckill"
)

// PurchaseService 秒杀域能力
type PurchaseService interface {
	Purchase(ctx context.Context, voucherID, userID int64) (*seckill.VoucherOrder, error)
	CreateVoucher(ctx context.Context, v *seckill.Voucher) error
}

// SignService 打卡域能力
type SignService interface {
	MarkActive(ctx context.Context, entityID int64) error
	CurrentStreak(ctx context.Context, entityID int64) (int, error)
}

type purchaseHandler struct {
	svc PurchaseService
}

type signHandler struct {
	svc SignService
}

// userID 从请求头取调用方身份
//
// 鉴权不在本服务范围内，身份由上游网关注入。
func userID(c *gin.Context) (int64, error) {
	raw := c.GetHeader("X-User-ID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errMissingUser
	}
	return id, nil
}

type createVoucherRequest struct {
	Title     string    `json:"title" binding:"required"`
	Stock     int       `json:"stock" binding:"required"`
	BeginTime time.Time `json:"begin_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// CreateVoucher POST /api/vouchers
func (h *purchaseHandler) CreateVoucher(c *gin.Context) {
	var req createVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	v := &seckill.Voucher{
		Title:     req.Title,
		Stock:     req.Stock,
		BeginTime: req.BeginTime,
		EndTime:   req.EndTime,
	}
	if err := h.svc.CreateVoucher(c.Request.Context(), v); err != nil {
		respondPurchaseError(c, err)
		return
	}
	respondOK(c, v)
}

// Purchase POST /api/vouchers/:id/orders
func (h *purchaseHandler) Purchase(c *gin.Context) {
	voucherID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || voucherID <= 0 {
		badRequest(c, "invalid voucher id")
		return
	}
	uid, err := userID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.svc.Purchase(c.Request.Context(), voucherID, uid)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	respondOK(c, order)
}

// MarkActive POST /api/sign
func (h *signHandler) MarkActive(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.svc.MarkActive(c.Request.Context(), uid); err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	respondOK(c, nil)
}

type streakResponse struct {
	Streak int `json:"streak"`
}

// Streak GET /api/sign/streak
func (h *signHandler) Streak(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	streak, err := h.svc.CurrentStreak(c.Request.Context(), uid)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	respondOK(c, streakResponse{Streak: streak})
}
