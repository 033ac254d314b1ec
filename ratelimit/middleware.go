package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/seckill/clog"
)

// KeyFunc 从请求提取限流键，返回空串表示本次请求不限流
type KeyFunc func(c *gin.Context) string

// GinMiddleware 返回按 KeyFunc 分桶的限流中间件
//
// Redis 故障时放行请求：限流是保护手段，不能成为单点。
func GinMiddleware(limiter *Limiter, limit Limit, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			limiter.logger.WarnContext(c.Request.Context(), "rate limit check failed, allowing request",
				clog.String("key", key), clog.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"code":    "RATE_LIMITED",
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
