package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ceyewan/seckill/clog"
)

// HealthFunc 单个依赖的健康检查
type HealthFunc func(ctx context.Context) error

// Deps 路由依赖
type Deps struct {
	Purchase PurchaseService
	Sign     SignService
	Logger   clog.Logger

	// Health 以依赖名为键的健康检查集合，可为空
	Health map[string]HealthFunc

	// PurchaseLimit 下单接口的限流中间件，nil 表示不限流
	PurchaseLimit gin.HandlerFunc
}

// NewRouter 构建 gin 引擎并注册全部路由
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = clog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())

	r.GET("/healthz", healthHandler(deps.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		ph := &purchaseHandler{svc: deps.Purchase}
		api.POST("/vouchers", ph.CreateVoucher)
		if deps.PurchaseLimit != nil {
			api.POST("/vouchers/:id/orders", deps.PurchaseLimit, ph.Purchase)
		} else {
			api.POST("/vouchers/:id/orders", ph.Purchase)
		}

		sh := &signHandler{svc: deps.Sign}
		api.POST("/sign", sh.MarkActive)
		api.GET("/sign/streak", sh.Streak)
	}

	return r
}

// requestLogger 把访问日志写入 clog
func requestLogger(logger clog.Logger) gin.HandlerFunc {
	logger = logger.WithNamespace("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []clog.Field{
			clog.String("method", c.Request.Method),
			clog.String("path", c.Request.URL.Path),
			clog.Int("status", c.Writer.Status()),
			clog.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, clog.String("errors", c.Errors.String()))
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

func healthHandler(checks map[string]HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		detail := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				detail[name] = err.Error()
				continue
			}
			detail[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "deps": detail})
	}
}
