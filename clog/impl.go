package clog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	slog      *slog.Logger
	namespace []string
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(config *Config) (Logger, error) {
	level, err := parseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	var out io.Writer
	switch config.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &loggerImpl{slog: slog.New(handler)}, nil
}

func (l *loggerImpl) Debug(msg string, fields ...Field) { l.log(context.Background(), slog.LevelDebug, msg, fields) }
func (l *loggerImpl) Info(msg string, fields ...Field)  { l.log(context.Background(), slog.LevelInfo, msg, fields) }
func (l *loggerImpl) Warn(msg string, fields ...Field)  { l.log(context.Background(), slog.LevelWarn, msg, fields) }
func (l *loggerImpl) Error(msg string, fields ...Field) { l.log(context.Background(), slog.LevelError, msg, fields) }

// Fatal 记录日志后退出进程
func (l *loggerImpl) Fatal(msg string, fields ...Field) {
	l.log(context.Background(), slog.LevelError, msg, fields)
	os.Exit(1)
}

func (l *loggerImpl) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *loggerImpl) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *loggerImpl) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *loggerImpl) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *loggerImpl) FatalContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
	os.Exit(1)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &loggerImpl{
		slog:      l.slog.With(args...),
		namespace: l.namespace,
	}
}

func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	ns := append(append([]string{}, l.namespace...), parts...)
	return &loggerImpl{
		slog:      l.slog,
		namespace: ns,
	}
}

// log 统一出口，在此追加命名空间字段
func (l *loggerImpl) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	attrs := fields
	if len(l.namespace) > 0 {
		attrs = make([]Field, 0, len(fields)+1)
		attrs = append(attrs, slog.String("namespace", strings.Join(l.namespace, ".")))
		attrs = append(attrs, fields...)
	}
	l.slog.LogAttrs(ctx, level, msg, attrs...)
}
