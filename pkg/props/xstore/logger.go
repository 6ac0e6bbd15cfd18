package xstore

import (
	"context"
	"log/slog"
)

// Logger 日志接口，兼容 xlog 风格（ctx + msg + 键值对）。
// 不设置时 Warn/Error 退化到标准库 log 输出，Debug/Info 丢弃。
type Logger interface {
	// Debug 记录调试日志
	Debug(ctx context.Context, msg string, args ...any)
	// Info 记录信息日志
	Info(ctx context.Context, msg string, args ...any)
	// Warn 记录警告日志
	Warn(ctx context.Context, msg string, args ...any)
	// Error 记录错误日志
	Error(ctx context.Context, msg string, args ...any)
}

// NewSlogLogger 把 *slog.Logger 适配为 Logger。l 为 nil 时使用 slog.Default()。
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}
