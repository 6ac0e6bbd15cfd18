package xreload

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler 把周期检查安排到后台执行。
//
// 标准实现是 TickerScheduler 与 CronScheduler，测试中可注入
// 自定义实现来手动驱动时钟。
type Scheduler interface {
	// Schedule 启动 task 的周期执行。initial 是首次执行前的等待，
	// period 是之后的间隔；ctx 取消后任务不再执行。
	// 返回的 stop 阻塞到后台任务完全退出，可重复调用。
	Schedule(ctx context.Context, initial, period time.Duration, task func(context.Context)) (stop func(), err error)
}

// TickerScheduler 按固定周期调度。
type TickerScheduler struct{}

// NewTickerScheduler 创建固定周期调度器。
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Schedule 实现 Scheduler。首次执行等待 initial（非正时取 period），
// 之后每 period 执行一次，绝不在启动时立刻执行。
func (s *TickerScheduler) Schedule(ctx context.Context, initial, period time.Duration, task func(context.Context)) (func(), error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period %v", ErrBadSchedule, period)
	}
	if initial <= 0 {
		initial = period
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		timer := time.NewTimer(initial)
		defer timer.Stop()
		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
		}
		task(runCtx)

		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				task(runCtx)
			}
		}
	}()

	stop := func() {
		cancel()
		<-done
	}
	return stop, nil
}

// CronScheduler 按 cron 表达式调度，支持标准五段格式与
// @every、@hourly 等描述符。
type CronScheduler struct {
	spec string
}

// NewCronScheduler 创建 cron 调度器。表达式在 Schedule 时才校验。
func NewCronScheduler(spec string) *CronScheduler {
	return &CronScheduler{spec: spec}
}

// Schedule 实现 Scheduler。执行时刻完全由 cron 表达式决定，
// initial 与 period 不参与。
func (s *CronScheduler) Schedule(ctx context.Context, _, _ time.Duration, task func(context.Context)) (func(), error) {
	runCtx, cancel := context.WithCancel(ctx)

	c := cron.New()
	_, err := c.AddFunc(s.spec, func() {
		if runCtx.Err() != nil {
			return
		}
		task(runCtx)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: cron %q: %v", ErrBadSchedule, s.spec, err)
	}
	c.Start()

	stop := func() {
		cancel()
		// Stop 返回的 context 在运行中的任务结束后完成
		<-c.Stop().Done()
	}
	return stop, nil
}
