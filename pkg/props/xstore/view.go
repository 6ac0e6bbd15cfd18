package xstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// View 是 Store 之上的类型化读取门面。
//
// 每次取值前都会先执行 SyncReloadCheck，使同步热更新模式下的读取
// 能够按周期触发新鲜度检查；未绑定触发器时该调用为空操作。
// 所有取值方法都不会修改存储内容，可与写操作并发使用。
type View struct {
	store *Store
}

// View 返回类型化读取门面。多次调用返回的门面等价，可随意创建。
func (s *Store) View() *View {
	return &View{store: s}
}

// String 返回 key 对应的字符串值。键不存在时第二个返回值为 false。
func (v *View) String(key string) (string, bool) {
	v.store.SyncReloadCheck()
	return v.store.GetProperty(key)
}

// StringOr 返回 key 对应的字符串值，键不存在时返回 def。
func (v *View) StringOr(key, def string) string {
	if val, ok := v.String(key); ok {
		return val
	}
	return def
}

// Int 返回 key 对应的 int 值。键不存在或无法解析时第二个返回值为 false。
func (v *View) Int(key string) (int, bool) {
	val, ok := v.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, false
	}
	return n, true
}

// IntOr 返回 key 对应的 int 值，键不存在或无法解析时返回 def。
func (v *View) IntOr(key string, def int) int {
	if n, ok := v.Int(key); ok {
		return n
	}
	return def
}

// Int64 返回 key 对应的 int64 值。键不存在或无法解析时第二个返回值为 false。
func (v *View) Int64(key string) (int64, bool) {
	val, ok := v.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Int64Or 返回 key 对应的 int64 值，键不存在或无法解析时返回 def。
func (v *View) Int64Or(key string, def int64) int64 {
	if n, ok := v.Int64(key); ok {
		return n
	}
	return def
}

// Float64 返回 key 对应的 float64 值。键不存在或无法解析时第二个返回值为 false。
func (v *View) Float64(key string) (float64, bool) {
	val, ok := v.String(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Float64Or 返回 key 对应的 float64 值，键不存在或无法解析时返回 def。
func (v *View) Float64Or(key string, def float64) float64 {
	if f, ok := v.Float64(key); ok {
		return f
	}
	return def
}

// Bool 返回 key 对应的布尔值，接受 strconv.ParseBool 的全部写法。
// 键不存在或无法解析时第二个返回值为 false。
func (v *View) Bool(key string) (bool, bool) {
	val, ok := v.String(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return false, false
	}
	return b, true
}

// BoolOr 返回 key 对应的布尔值，键不存在或无法解析时返回 def。
func (v *View) BoolOr(key string, def bool) bool {
	if b, ok := v.Bool(key); ok {
		return b
	}
	return def
}

// Duration 返回 key 对应的时长，按 time.ParseDuration 解析。
// 键不存在或无法解析时第二个返回值为 false。
func (v *View) Duration(key string) (time.Duration, bool) {
	val, ok := v.String(key)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return 0, false
	}
	return d, true
}

// DurationOr 返回 key 对应的时长，键不存在或无法解析时返回 def。
func (v *View) DurationOr(key string, def time.Duration) time.Duration {
	if d, ok := v.Duration(key); ok {
		return d
	}
	return def
}

// Strings 按逗号切分 key 对应的值并去除各段首尾空白，空段被丢弃。
// 键不存在时返回 nil。
func (v *View) Strings(key string) []string {
	val, ok := v.String(key)
	if !ok {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StringsOr 返回 key 对应的字符串切片，键不存在时返回 def。
func (v *View) StringsOr(key string, def []string) []string {
	if _, ok := v.String(key); !ok {
		return def
	}
	return v.Strings(key)
}

// Has 报告 key 是否存在。
func (v *View) Has(key string) bool {
	_, ok := v.String(key)
	return ok
}

// Unmarshal 把 path 前缀下的键值绑定到 target 指向的结构体。
//
// 点号分隔的键名映射为嵌套字段，字段通过 `prop` 标签或小写字段名匹配；
// 字符串值按目标字段类型弱转换，time.Duration 与逗号分隔的切片
// 均可直接绑定。path 为空串时绑定全部键。
func (v *View) Unmarshal(path string, target any) error {
	v.store.SyncReloadCheck()

	flat := v.store.Properties()
	entries := make(map[string]any, len(flat))
	for key, val := range flat {
		entries[key] = val
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(entries, "."), nil); err != nil {
		return fmt.Errorf("xstore: unmarshal %q: %w", path, err)
	}
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: "prop"}); err != nil {
		return fmt.Errorf("xstore: unmarshal %q: %w", path, err)
	}
	return nil
}
