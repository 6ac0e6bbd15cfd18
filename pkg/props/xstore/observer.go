package xstore

import "context"

// Observer 观测配置装载与重载，默认空实现。
type Observer interface {
	// StartReload 开始观测一次 load/reload，返回可能携带跨度的 ctx。
	StartReload(ctx context.Context, definition string) (context.Context, ReloadSpan)
}

// ReloadSpan 表示一次装载观测。
type ReloadSpan interface {
	// End 结束观测并记录结果，err 为 nil 表示装载成功。
	End(err error)
	// ListenerPanic 记录一次监听器 panic。
	ListenerPanic()
}

// NopObserver 是空实现。
type NopObserver struct{}

// StartReload 返回 ctx 和空跨度。若 ctx 为 nil，返回 context.Background()。
func (NopObserver) StartReload(ctx context.Context, _ string) (context.Context, ReloadSpan) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx, NopReloadSpan{}
}

// NopReloadSpan 是空跨度实现。
type NopReloadSpan struct{}

// End 空实现。
func (NopReloadSpan) End(_ error) {}

// ListenerPanic 空实现。
func (NopReloadSpan) ListenerPanic() {}

// startReload 使用 observer 开始观测，nil observer 时返回空跨度。
// 返回的 context 与 ReloadSpan 都保证非 nil，自定义 Observer 返回的
// nil 值会被兜底替换。
func startReload(ctx context.Context, observer Observer, definition string) (context.Context, ReloadSpan) {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx, NopReloadSpan{}
	}
	retCtx, span := observer.StartReload(ctx, definition)
	if retCtx == nil {
		retCtx = ctx
	}
	if span == nil {
		span = NopReloadSpan{}
	}
	return retCtx, span
}
