package xreload

import "errors"

var (
	// ErrNilTarget 表示重载目标为 nil。
	ErrNilTarget = errors.New("xreload: nil target")

	// ErrNoHotReload 表示 Definition 没有热重载配置。
	ErrNoHotReload = errors.New("xreload: definition has no hot reload")

	// ErrAlreadyStarted 表示触发器已经启动。
	ErrAlreadyStarted = errors.New("xreload: trigger already started")

	// ErrNoWatchableSource 表示 watch 模式下没有任何 file 源可监视。
	ErrNoWatchableSource = errors.New("xreload: no file source to watch")

	// ErrBadSchedule 表示调度参数不可用。
	ErrBadSchedule = errors.New("xreload: bad schedule")
)
