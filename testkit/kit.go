// Package testkit 提供测试共用的依赖构造与环境探测辅助。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/seckill/clog"
)

// NewLogger 返回一个用于测试的 logger
// 控制台格式输出，适合本地调试
func NewLogger() clog.Logger {
	logger, err := clog.New(clog.NewDefaultConfig())
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewContext 返回一个带有超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NewID 返回一个唯一的测试 ID (UUID v4 前 8 位)
// 用于生成唯一的 Key 或表名后缀，避免测试间数据冲突
func NewID() string {
	return uuid.New().String()[0:8]
}
