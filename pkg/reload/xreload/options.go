package xreload

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/xprops/pkg/props/xstore"
)

// Option 配置 Trigger。
type Option func(*Trigger)

// WithLogger 指定日志实现。不设置时 Error 退化到标准库 log 输出，
// Debug 丢弃。
func WithLogger(l xstore.Logger) Option {
	return func(t *Trigger) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithScheduler 指定 async 模式的调度器。不设置时按 Definition
// 自动选择：有 Cron 表达式用 CronScheduler，否则用 TickerScheduler。
func WithScheduler(s Scheduler) Option {
	return func(t *Trigger) {
		if s != nil {
			t.scheduler = s
		}
	}
}

// WithDebounce 指定 watch 模式的防抖时间，默认 100ms。
func WithDebounce(d time.Duration) Option {
	return func(t *Trigger) {
		if d > 0 {
			t.debounce = d
		}
	}
}

// WithRetry 让每轮检查失败后按固定间隔重试，attempts 是总尝试
// 次数（含首次），小于 2 时不启用。
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(t *Trigger) {
		t.retryAttempts = attempts
		t.retryDelay = delay
	}
}

// WithBreaker 给检查加上熔断：连续失败 maxFailures 次后熔断
// openTimeout，期间的检查直接快速失败，避免每个周期都去撞已经
// 挂掉的源。maxFailures 为 0 时不启用。
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(t *Trigger) {
		if maxFailures == 0 {
			return
		}
		t.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    t.def.Name,
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
		})
	}
}
