package clog

import (
	"context"
	"fmt"
	"sync"
)

// New 创建一个新的 Logger 实例
//
// config 为 nil 时使用默认配置。
func New(config *Config) (Logger, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return newLogger(config)
}

var (
	defaultOnce   sync.Once
	defaultLogger Logger
)

// Default 返回进程级默认 Logger
//
// 未显式初始化时，使用开发环境默认配置。组件在没有注入
// Logger 的情况下会回退到这里。
func Default() Logger {
	defaultOnce.Do(func() {
		logger, err := New(NewDefaultConfig())
		if err != nil {
			logger = Discard()
		}
		defaultLogger = logger
	})
	return defaultLogger
}

// Discard 创建一个静默的 Logger 实例
//
// 返回的 Logger 实现了 Logger 接口，但所有方法体都是空操作。
func Discard() Logger {
	return &noopLogger{}
}

// noopLogger 是一个什么都不做的 Logger 实现（内部使用）
type noopLogger struct{}

func (l *noopLogger) Debug(msg string, fields ...Field)                             {}
func (l *noopLogger) Info(msg string, fields ...Field)                              {}
func (l *noopLogger) Warn(msg string, fields ...Field)                              {}
func (l *noopLogger) Error(msg string, fields ...Field)                             {}
func (l *noopLogger) Fatal(msg string, fields ...Field)                             {}
func (l *noopLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {}
func (l *noopLogger) InfoContext(ctx context.Context, msg string, fields ...Field)  {}
func (l *noopLogger) WarnContext(ctx context.Context, msg string, fields ...Field)  {}
func (l *noopLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {}
func (l *noopLogger) FatalContext(ctx context.Context, msg string, fields ...Field) {}
func (l *noopLogger) With(fields ...Field) Logger                                   { return l }
func (l *noopLogger) WithNamespace(parts ...string) Logger                          { return l }
