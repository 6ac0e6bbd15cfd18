package xstore

import (
	"errors"
	"fmt"
)

// 配置存储相关错误。
var (
	// ErrNilDefinition 表示构造 Store 时传入了 nil Definition。
	ErrNilDefinition = errors.New("xstore: nil definition")

	// ErrBadDefinition 表示 Definition 字段不合法。
	ErrBadDefinition = errors.New("xstore: invalid definition")

	// ErrBadDefaults 表示默认值原型不是结构体（或结构体指针）。
	ErrBadDefaults = errors.New("xstore: defaults prototype must be a struct")
)

// ConfigLoadError 表示一次装载失败，携带配置名与底层原因。
// 装载失败时存储中的已有内容保持原样。
type ConfigLoadError struct {
	// Definition 配置定义名。
	Definition string
	// Err 底层原因，通常包装 xsource.ErrSourceLoad。
	Err error
}

// Error 实现 error。
func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("xstore: load %q failed: %v", e.Definition, e.Err)
}

// Unwrap 返回底层原因，支持 errors.Is/As 链式判断。
func (e *ConfigLoadError) Unwrap() error {
	return e.Err
}
