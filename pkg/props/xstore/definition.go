package xstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/omeyang/xprops/pkg/source/xsource"
)

// ReloadMode 表示热重载的触发方式。
type ReloadMode string

const (
	// ReloadSync 同步模式：读取前顺带检查源是否过期，过期则当场重载。
	ReloadSync ReloadMode = "sync"
	// ReloadAsync 异步模式：后台按固定周期检查并重载。
	ReloadAsync ReloadMode = "async"
	// ReloadWatch 监视模式：由文件系统事件驱动重载。
	ReloadWatch ReloadMode = "watch"
)

// ParseReloadMode 解析重载模式名。
func ParseReloadMode(s string) (ReloadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sync":
		return ReloadSync, nil
	case "async":
		return ReloadAsync, nil
	case "watch":
		return ReloadWatch, nil
	default:
		return "", fmt.Errorf("%w: unknown reload mode %q", ErrBadDefinition, s)
	}
}

// HotReload 描述一个配置的热重载方式。这里只是数据，
// 真正的触发逻辑由 xreload 包消费执行。
type HotReload struct {
	// Mode 触发方式，必填。
	Mode ReloadMode
	// Period 检查周期。async 模式的轮询间隔；sync 模式的检查节流
	// 间隔（0 表示每次读取都检查）。
	Period time.Duration
	// Cron 表达式，仅 async 模式可用，与 Period 二选一。
	Cron string
}

// Definition 是一个配置类型的完整描述，构造一次、按引用传递。
//
// 同一 Definition 可用于创建 Store 与重载触发器，本身不持有
// 任何运行期状态。
type Definition struct {
	// Name 配置名，用于日志、指标与错误信息。
	Name string
	// Sources 有序的源 spec 列表，见 xsource.ParseSpec。
	Sources []string
	// Policy 多源取舍策略。
	Policy xsource.LoadPolicy
	// HotReload 热重载方式，nil 表示不热重载。
	HotReload *HotReload
	// Defaults 默认值来源，nil 表示没有默认值。
	Defaults DefaultsProvider
}

// Validate 校验 Definition 是否可用。
func (d *Definition) Validate() error {
	if d == nil {
		return ErrNilDefinition
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: blank name", ErrBadDefinition)
	}
	hr := d.HotReload
	if hr == nil {
		return nil
	}
	switch hr.Mode {
	case ReloadSync:
		if hr.Period < 0 {
			return fmt.Errorf("%w: %q: negative sync period", ErrBadDefinition, d.Name)
		}
		if hr.Cron != "" {
			return fmt.Errorf("%w: %q: cron requires async mode", ErrBadDefinition, d.Name)
		}
	case ReloadAsync:
		if hr.Period <= 0 && hr.Cron == "" {
			return fmt.Errorf("%w: %q: async mode needs a period or a cron expression", ErrBadDefinition, d.Name)
		}
		if hr.Period > 0 && hr.Cron != "" {
			return fmt.Errorf("%w: %q: period and cron are mutually exclusive", ErrBadDefinition, d.Name)
		}
	case ReloadWatch:
		if hr.Cron != "" {
			return fmt.Errorf("%w: %q: cron requires async mode", ErrBadDefinition, d.Name)
		}
	default:
		return fmt.Errorf("%w: %q: unknown reload mode %q", ErrBadDefinition, d.Name, hr.Mode)
	}
	return nil
}
