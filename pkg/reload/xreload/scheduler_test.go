package xreload

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TickerScheduler
// =============================================================================

func TestTickerScheduler_BadPeriod(t *testing.T) {
	s := NewTickerScheduler()
	_, err := s.Schedule(t.Context(), 0, 0, func(context.Context) {})
	assert.ErrorIs(t, err, ErrBadSchedule)

	_, err = s.Schedule(t.Context(), 0, -time.Second, func(context.Context) {})
	assert.ErrorIs(t, err, ErrBadSchedule)
}

func TestTickerScheduler_FiresAfterInitial(t *testing.T) {
	var count atomic.Int64
	s := NewTickerScheduler()
	stop, err := s.Schedule(t.Context(), 60*time.Millisecond, 40*time.Millisecond,
		func(context.Context) { count.Add(1) })
	require.NoError(t, err)
	defer stop()

	// 首次执行前绝不触发
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, count.Load())

	assert.Eventually(t, func() bool {
		return count.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTickerScheduler_InitialDefaultsToPeriod(t *testing.T) {
	var count atomic.Int64
	s := NewTickerScheduler()
	stop, err := s.Schedule(t.Context(), 0, 60*time.Millisecond,
		func(context.Context) { count.Add(1) })
	require.NoError(t, err)
	defer stop()

	// initial 非正时取 period，照样不立即执行
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, count.Load())

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTickerScheduler_StopBeforeFirstRun(t *testing.T) {
	var count atomic.Int64
	s := NewTickerScheduler()
	stop, err := s.Schedule(t.Context(), time.Hour, time.Hour,
		func(context.Context) { count.Add(1) })
	require.NoError(t, err)

	// stop 阻塞到后台 goroutine 退出，且可重复调用
	stop()
	stop()
	assert.Zero(t, count.Load())
}

func TestTickerScheduler_StopFreezesCount(t *testing.T) {
	var count atomic.Int64
	s := NewTickerScheduler()
	stop, err := s.Schedule(t.Context(), 20*time.Millisecond, 20*time.Millisecond,
		func(context.Context) { count.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return count.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	stop()
	frozen := count.Load()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, frozen, count.Load())
}

func TestTickerScheduler_CtxCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	var count atomic.Int64
	s := NewTickerScheduler()
	stop, err := s.Schedule(ctx, 20*time.Millisecond, 20*time.Millisecond,
		func(context.Context) { count.Add(1) })
	require.NoError(t, err)
	defer stop()

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	frozen := count.Load()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, frozen, count.Load())
}

// =============================================================================
// CronScheduler
// =============================================================================

func TestCronScheduler_BadSpec(t *testing.T) {
	s := NewCronScheduler("not a cron")
	stop, err := s.Schedule(t.Context(), 0, 0, func(context.Context) {})
	assert.ErrorIs(t, err, ErrBadSchedule)
	assert.Nil(t, stop)
}

func TestCronScheduler_FiresAndStops(t *testing.T) {
	var count atomic.Int64
	s := NewCronScheduler("@every 1s")
	stop, err := s.Schedule(t.Context(), 0, 0, func(context.Context) { count.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	stop()
	frozen := count.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, frozen, count.Load())
}

func TestCronScheduler_CtxCancelGuardsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	var count atomic.Int64
	s := NewCronScheduler("@every 1s")
	stop, err := s.Schedule(ctx, 0, 0, func(context.Context) { count.Add(1) })
	require.NoError(t, err)
	defer stop()

	// ctx 取消后调度点到了也不执行
	cancel()
	time.Sleep(1200 * time.Millisecond)
	assert.Zero(t, count.Load())
}
