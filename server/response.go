package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/seckill/seckill"
)

// Response 统一的 JSON 响应结构
type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Success: false, Code: code, Message: message})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// respondPurchaseError 把下单错误翻译为 HTTP 响应
//
// 业务拒绝带原因码返回 4xx；IN_FLIGHT 可重试，用 429 提示客户端
// 退避；其余按基础设施故障返回 500，不向外暴露内部细节。
func respondPurchaseError(c *gin.Context, err error) {
	reason := seckill.Reason(err)
	switch reason {
	case "VOUCHER_NOT_FOUND":
		respondError(c, http.StatusNotFound, reason, "voucher not found")
	case "NOT_STARTED":
		respondError(c, http.StatusForbidden, reason, "sale has not started")
	case "ENDED":
		respondError(c, http.StatusForbidden, reason, "sale has ended")
	case "SOLD_OUT":
		respondError(c, http.StatusConflict, reason, "sold out")
	case "ALREADY_PURCHASED":
		respondError(c, http.StatusConflict, reason, "already purchased")
	case "IN_FLIGHT":
		respondError(c, http.StatusTooManyRequests, reason, "another request in flight, retry later")
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

var errMissingUser = errors.New("missing or invalid user id")
