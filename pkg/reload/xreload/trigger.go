package xreload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xprops/pkg/props/xstore"
	"github.com/omeyang/xprops/pkg/source/xsource"
)

// checkKey 是 singleflight 合并并发检查用的键。
const checkKey = "check"

// Target 是触发器驱动的重载目标，*xstore.Store 天然满足。
type Target interface {
	// Reload 重新装配配置。
	Reload(ctx context.Context) error
	// IsLoading 报告目标当前是否正在装配。
	IsLoading() bool
	// BindSyncCheck 绑定读取前的同步检查钩子。
	BindSyncCheck(check func())
}

var _ Target = (*xstore.Store)(nil)

// Trigger 按 Definition.HotReload 描述的方式驱动 Target 重载。
//
// 一个 Trigger 只服务一个 Definition。Start 之后按模式运转，
// Stop 停止后台任务；两者都幂等。CheckAndReload 也可随时手动调用。
type Trigger struct {
	def      *xstore.Definition
	resolver *xsource.Resolver
	target   Target
	logger   xstore.Logger

	scheduler Scheduler
	debounce  time.Duration

	retryAttempts uint
	retryDelay    time.Duration
	breaker       *gobreaker.CircuitBreaker[any]

	group    singleflight.Group
	stampsMu sync.Mutex
	stamps   xsource.Stamps

	syncBusy atomic.Bool
	lastSync atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	stopFn  func()
	watcher *fileWatcher
}

// New 创建触发器。def 必须携带 HotReload 配置；resolver 为 nil 时
// 使用 xsource.NewResolver() 的默认注册表。
//
// 注意 resolver 要与 Target 所用的一致，否则印章与实际装载的
// 源可能对不上。
func New(def *xstore.Definition, resolver *xsource.Resolver, target Target, opts ...Option) (*Trigger, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if def.HotReload == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoHotReload, def.Name)
	}
	if target == nil {
		return nil, ErrNilTarget
	}

	t := &Trigger{
		def:      def,
		resolver: resolver,
		target:   target,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.resolver == nil {
		t.resolver = xsource.NewResolver()
	}
	return t, nil
}

// Start 按模式启动触发器。sync 模式只绑定读取钩子，不起后台任务；
// async 模式启动调度器；watch 模式启动文件监视。
// 已启动时返回 ErrAlreadyStarted。ctx 取消等价于 Stop 掉后台任务。
func (t *Trigger) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)

	switch t.def.HotReload.Mode {
	case xstore.ReloadSync:
		t.lastSync.Store(time.Now().UnixNano())
		t.target.BindSyncCheck(t.syncCheckFunc(runCtx))

	case xstore.ReloadAsync:
		sched := t.scheduler
		if sched == nil {
			if t.def.HotReload.Cron != "" {
				sched = NewCronScheduler(t.def.HotReload.Cron)
			} else {
				sched = NewTickerScheduler()
			}
		}
		period := t.def.HotReload.Period
		stop, err := sched.Schedule(runCtx, period, period, t.runScheduledCheck)
		if err != nil {
			cancel()
			return err
		}
		t.stopFn = stop

	case xstore.ReloadWatch:
		paths, err := fileSourcePaths(t.def.Sources)
		if err != nil {
			cancel()
			return err
		}
		if len(paths) == 0 {
			cancel()
			return fmt.Errorf("%w: %q", ErrNoWatchableSource, t.def.Name)
		}
		w, err := newFileWatcher(paths, t.debounce,
			func() { t.runScheduledCheck(runCtx) },
			func(err error) {
				t.logError(runCtx, "watch error", "definition", t.def.Name, "error", err)
			},
		)
		if err != nil {
			cancel()
			return err
		}
		w.start()
		t.watcher = w

	default:
		cancel()
		return fmt.Errorf("%w: %q: mode %q", xstore.ErrBadDefinition, t.def.Name, t.def.HotReload.Mode)
	}

	t.cancel = cancel
	t.started = true
	t.logDebug(runCtx, "reload trigger started",
		"definition", t.def.Name, "mode", string(t.def.HotReload.Mode))
	return nil
}

// Stop 停止后台任务并等待其退出，幂等。sync 模式绑定的钩子
// 留在 Store 上，但内部 context 已取消，不会再触发检查。
func (t *Trigger) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return nil
	}

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.stopFn != nil {
		t.stopFn()
		t.stopFn = nil
	}
	var err error
	if t.watcher != nil {
		err = t.watcher.stop()
		t.watcher = nil
	}
	t.started = false
	return err
}

// CheckAndReload 探测源是否变化，变化则重载目标。并发调用被
// 合并为一次检查；目标正在装配时直接返回 nil。
//
// 没有历史印章（进程启动后的第一次检查）时总是重载；印章记录
// 只在重载成功后更新，失败留给下一轮重试。
func (t *Trigger) CheckAndReload(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if t.target.IsLoading() {
		return nil
	}
	_, err, _ := t.group.Do(checkKey, func() (any, error) {
		return nil, t.check(ctx)
	})
	return err
}

// check 给 checkOnce 套上可选的熔断与重试。组合顺序是重试在外、
// 熔断在内，每次尝试都计入熔断统计；熔断开启时不再重试。
func (t *Trigger) check(ctx context.Context) error {
	if len(t.def.Sources) == 0 {
		return nil
	}

	run := func() error { return t.checkOnce(ctx) }

	if t.breaker != nil {
		inner := run
		run = func() error {
			_, err := t.breaker.Execute(func() (any, error) {
				return nil, inner()
			})
			return err
		}
	}
	if t.retryAttempts > 1 {
		inner := run
		run = func() error {
			return retry.New(
				retry.Context(ctx),
				retry.Attempts(t.retryAttempts),
				retry.Delay(t.retryDelay),
				retry.DelayType(retry.FixedDelay),
				retry.LastErrorOnly(true),
				retry.RetryIf(func(err error) bool {
					return !errors.Is(err, gobreaker.ErrOpenState) &&
						!errors.Is(err, gobreaker.ErrTooManyRequests)
				}),
			).Do(inner)
		}
	}
	return run()
}

// checkOnce 执行一轮探测与重载。
func (t *Trigger) checkOnce(ctx context.Context) error {
	current, err := t.resolver.Stamps(ctx, t.def.Sources)
	if err != nil {
		return err
	}

	t.stampsMu.Lock()
	last := t.stamps
	t.stampsMu.Unlock()

	// 没有任何源能盖章时无从比较，只能每轮都重载
	if last != nil && len(current) > 0 && current.Equal(last) {
		t.logDebug(ctx, "sources unchanged", "definition", t.def.Name)
		return nil
	}

	if err := t.target.Reload(ctx); err != nil {
		return err
	}

	t.stampsMu.Lock()
	t.stamps = current
	t.stampsMu.Unlock()
	t.logDebug(ctx, "sources changed, target reloaded",
		"definition", t.def.Name, "stamps", len(current))
	return nil
}

// runScheduledCheck 是调度器与监视器共用的入口，失败只记日志，
// 调度照常继续。
func (t *Trigger) runScheduledCheck(ctx context.Context) {
	if err := t.CheckAndReload(ctx); err != nil {
		t.logError(ctx, "reload check failed", "definition", t.def.Name, "error", err)
	}
}

// syncCheckFunc 构造 sync 模式绑定到 Store 的检查钩子。
//
// 钩子在读取方的 goroutine 上执行，三层闸门防止读取路径被拖垮：
// 已在检查中的并发读取直接跳过（也挡住重载监听器回读配置引起
// 的递归）；Period > 0 时按周期节流；context 取消后彻底失效。
func (t *Trigger) syncCheckFunc(ctx context.Context) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		if !t.syncBusy.CompareAndSwap(false, true) {
			return
		}
		defer t.syncBusy.Store(false)

		if p := t.def.HotReload.Period; p > 0 {
			now := time.Now().UnixNano()
			last := t.lastSync.Load()
			if now-last < int64(p) {
				return
			}
			if !t.lastSync.CompareAndSwap(last, now) {
				return
			}
		}

		if err := t.CheckAndReload(ctx); err != nil {
			t.logError(ctx, "sync reload check failed", "definition", t.def.Name, "error", err)
		}
	}
}

// fileSourcePaths 从源 spec 列表里挑出 file 源的路径。
func fileSourcePaths(specs []string) ([]string, error) {
	var paths []string
	for _, raw := range specs {
		sp, err := xsource.ParseSpec(raw)
		if err != nil {
			return nil, err
		}
		if sp.Scheme == xsource.SchemeFile {
			paths = append(paths, sp.Target)
		}
	}
	return paths, nil
}

func (t *Trigger) logDebug(ctx context.Context, msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(ctx, msg, args...)
	}
}

func (t *Trigger) logError(ctx context.Context, msg string, args ...any) {
	if t.logger != nil {
		t.logger.Error(ctx, msg, args...)
	} else {
		log.Printf("[ERROR] xreload: %s %v", msg, args)
	}
}
