package xtable

import (
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/magiconair/properties"
)

// Table 是键有序的字符串属性表。
//
// 键按首次插入顺序排列，键唯一，值为字符串。
// 底层使用 magiconair/properties 存储，变量展开被禁用，
// 因此值中的 ${...} 会原样保留。
//
// Table 不是并发安全的，外部需要自行加锁（xstore.Store 负责此事）。
type Table struct {
	props *properties.Properties
}

// New 创建空属性表。
func New() *Table {
	return &Table{props: newProps()}
}

// FromMap 从普通 map 创建属性表。
// Go map 迭代无序，因此按键升序插入以保证结果确定。
func FromMap(m map[string]string) *Table {
	t := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Set(k, m[k])
	}
	return t
}

// Parse 解析 properties 文本为属性表。
// 解析失败返回 [ErrParseFailed] 包装的错误。
func Parse(data []byte) (*Table, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return &Table{props: p}, nil
}

// Get 返回键对应的值。第二个返回值表示键是否存在。
func (t *Table) Get(key string) (string, bool) {
	return t.props.Get(key)
}

// GetOr 返回键对应的值，键不存在时返回 def。
func (t *Table) GetOr(key, def string) string {
	if v, ok := t.props.Get(key); ok {
		return v
	}
	return def
}

// Set 设置键值，返回旧值及其是否存在。
// 空 key 会被静默忽略（底层文本格式无法表达空键），返回 ("", false)。
func (t *Table) Set(key, value string) (prev string, existed bool) {
	if key == "" {
		return "", false
	}
	// 展开已禁用，Set 不会返回错误。
	prev, existed, _ = t.props.Set(key, value)
	return prev, existed
}

// Delete 删除键，返回旧值及其是否存在。
func (t *Table) Delete(key string) (prev string, existed bool) {
	prev, existed = t.props.Get(key)
	if existed {
		t.props.Delete(key)
	}
	return prev, existed
}

// Keys 返回按插入顺序排列的键列表。返回的切片是副本，可安全修改。
func (t *Table) Keys() []string {
	keys := t.props.Keys()
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Len 返回条目数量。
func (t *Table) Len() int {
	return t.props.Len()
}

// Clear 清空所有条目。
func (t *Table) Clear() {
	t.props = newProps()
}

// PutAll 将 src 的全部条目覆盖写入 t（src 中的键胜出）。
// src 为 nil 时为空操作。t 中不存在的键按 src 的顺序追加。
func (t *Table) PutAll(src *Table) {
	if src == nil {
		return
	}
	for _, k := range src.props.Keys() {
		v, _ := src.props.Get(k)
		t.Set(k, v)
	}
}

// Clone 返回 t 的深拷贝，二者互不影响。
func (t *Table) Clone() *Table {
	c := New()
	c.PutAll(t)
	return c
}

// Map 返回内容的 map 副本。
func (t *Table) Map() map[string]string {
	m := make(map[string]string, t.props.Len())
	for _, k := range t.props.Keys() {
		m[k], _ = t.props.Get(k)
	}
	return m
}

// Equal 判断两表内容是否相同（与键的插入顺序无关）。
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return t.Len() == 0
	}
	if t.Len() != other.Len() {
		return false
	}
	for _, k := range t.props.Keys() {
		v, _ := t.props.Get(k)
		ov, ok := other.props.Get(k)
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Checksum 返回内容指纹（xxhash64），与键的插入顺序无关。
// 用于变更探测：内容相同的两个表指纹必然相同。
func (t *Table) Checksum() uint64 {
	keys := t.props.Keys()
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	d := xxhash.New()
	for _, k := range sorted {
		v, _ := t.props.Get(k)
		// NUL / RS 作为键值与条目分隔符，避免拼接歧义。
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0x00})
		_, _ = d.WriteString(v)
		_, _ = d.Write([]byte{0x1e})
	}
	return d.Sum64()
}

// Load 从 r 读取 properties 文本并增量合并进 t。
// 与 java.util.Properties.load 对齐：已有条目保留，同键覆盖。
// I/O 错误原样返回，解析错误返回 [ErrParseFailed] 包装的错误。
func (t *Table) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	t.PutAll(parsed)
	return nil
}

// Store 将 t 以 "key=value" 行文本写入 w，按键插入顺序输出。
// comment 非空时先写入一行 "# comment"。
func (t *Table) Store(w io.Writer, comment string) error {
	if comment != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", comment); err != nil {
			return err
		}
	}
	_, err := t.props.Write(w, properties.UTF8)
	return err
}

// String 返回 "key=value" 行文本表示。
func (t *Table) String() string {
	return t.props.String()
}

func newProps() *properties.Properties {
	p := properties.NewProperties()
	p.DisableExpansion = true
	return p
}
