package xstore

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xprops/pkg/props/xtable"
	"github.com/omeyang/xprops/pkg/source/xsource"
)

// Reloadable 是存储的重载能力面。
type Reloadable interface {
	// Reload 重建属性表并通知监听器。
	Reload(ctx context.Context) error
	// AddReloadListener 注册重载监听器，注册顺序即通知顺序。
	AddReloadListener(l ReloadListener)
	// RemoveReloadListener 移除第一个等值的监听器。
	RemoveReloadListener(l ReloadListener)
}

// Accessible 是存储的只读能力面。
type Accessible interface {
	// GetProperty 返回键的当前值及其是否存在。
	GetProperty(key string) (string, bool)
	// GetPropertyOr 返回键的当前值，缺席时返回 def。
	GetPropertyOr(key, def string) string
	// PropertyNames 返回全部键（快照副本，插入顺序）。
	PropertyNames() []string
	// Len 返回条目数。
	Len() int
	// List 把当前内容以 "key = value" 行写入 w，用于诊断输出。
	List(w io.Writer) error
	// Store 把当前内容以 properties 文本写入 w。
	Store(w io.Writer, comment string) error
}

// Mutable 是存储的写能力面。
type Mutable interface {
	// SetProperty 设置键值，返回旧值及其是否存在。
	SetProperty(key, value string) (prev string, existed bool)
	// PutProperty 设置键值；value 为 nil 等价于 RemoveProperty。
	PutProperty(key string, value *string) (prev string, existed bool)
	// RemoveProperty 删除键，返回旧值及其是否存在。
	RemoveProperty(key string) (prev string, existed bool)
	// Clear 清空全部条目。
	Clear()
	// LoadFrom 把 properties 文本增量合并进存储。
	LoadFrom(r io.Reader) error
}

// Store 是一个配置类型的可变属性存储。
//
// 一把读写锁守护属性表：读者共享、写者独占；Load/Reload 在写锁内
// 完成解析与合并，读者要么看到旧表要么看到新表，绝不会看到半成品。
// 监听器在写锁释放之后、Reload 返回之前被同步通知，因此回调里
// 可以自由回读或回写存储而不会死锁。
type Store struct {
	def      *Definition
	resolver *xsource.Resolver
	imports  []*xtable.Table // 供给顺序保存，合并时逆序盖上
	logger   Logger
	observer Observer

	mu    sync.RWMutex
	table *xtable.Table

	loading   atomic.Bool
	listeners listenerRegistry
	syncCheck atomic.Value // func()

	ownerMu sync.Mutex
	owner   any
}

var (
	_ Reloadable = (*Store)(nil)
	_ Accessible = (*Store)(nil)
	_ Mutable    = (*Store)(nil)
)

// New 按 Definition 创建存储。创建后表为空，首次 Load 才装入内容。
func New(def *Definition, opts ...Option) (*Store, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		def:   def,
		table: xtable.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.resolver == nil {
		s.resolver = xsource.NewResolver()
	}
	return s, nil
}

// Definition 返回创建时的配置描述。
func (s *Store) Definition() *Definition {
	return s.def
}

// SetOwner 指定 ReloadEvent.Config 携带的逻辑配置对象，先到先得。
// 用于存储先于上层包装对象构造的场景。
func (s *Store) SetOwner(owner any) {
	if owner == nil {
		return
	}
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	if s.owner == nil {
		s.owner = owner
	}
}

func (s *Store) currentOwner() any {
	s.ownerMu.Lock()
	defer s.ownerMu.Unlock()
	if s.owner != nil {
		return s.owner
	}
	return s
}

// =============================================================================
// 装载与重载
// =============================================================================

// Load 从头装载属性表：默认值 → 解析源 → 导入层，整个序列在写锁内
// 完成并一次性替换可见内容。失败返回 *ConfigLoadError，已有内容原样保留。
func (s *Store) Load(ctx context.Context) error {
	ctx, span := startReload(ctx, s.observer, s.def.Name)

	s.mu.Lock()
	err := s.loadLocked(ctx)
	s.mu.Unlock()

	span.End(err)
	return err
}

// Reload 重建属性表，成功后按注册顺序同步通知监听器。
// 通知发生在写锁释放之后、本调用返回之前；单个监听器 panic 被隔离，
// 不影响后续监听器，也不影响重载本身的成功。
func (s *Store) Reload(ctx context.Context) error {
	ctx, span := startReload(ctx, s.observer, s.def.Name)

	s.mu.Lock()
	err := s.loadLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		span.End(err)
		return err
	}

	s.logDebug(ctx, "config reloaded", "definition", s.def.Name, "keys", s.Len())
	s.notifyListeners(ctx, span)
	span.End(nil)
	return nil
}

// loadLocked 在写锁内重建属性表。构建发生在草稿表上，全部成功后
// 才替换可见表，任何失败都不触碰已有内容。
func (s *Store) loadLocked(ctx context.Context) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	defaults := xtable.New()
	if s.def.Defaults != nil {
		var err error
		defaults, err = s.def.Defaults.Defaults()
		if err != nil {
			return &ConfigLoadError{Definition: s.def.Name, Err: err}
		}
	}

	loaded := xtable.New()
	if len(s.def.Sources) > 0 {
		var err error
		loaded, err = s.resolver.Resolve(ctx, s.def.Sources, s.def.Policy)
		if err != nil {
			return &ConfigLoadError{Definition: s.def.Name, Err: err}
		}
	}

	// 优先级自低到高：默认值 < 源 < 导入层；
	// 导入层之间先供给的优先，所以逆序盖上。
	overlays := make([]*xtable.Table, 0, 1+len(s.imports))
	overlays = append(overlays, loaded)
	for i := len(s.imports) - 1; i >= 0; i-- {
		overlays = append(overlays, s.imports[i])
	}

	s.table = xtable.Merge(defaults, overlays...)
	return nil
}

// IsLoading 报告是否正有一次装载在执行。只是参考信息，
// 不构成并发门闩；真正的互斥由读写锁保证。
func (s *Store) IsLoading() bool {
	return s.loading.Load()
}

func (s *Store) notifyListeners(ctx context.Context, span ReloadSpan) {
	snapshot := s.listeners.snapshot()
	if len(snapshot) == 0 {
		return
	}
	event := ReloadEvent{
		ID:     uuid.NewString(),
		At:     time.Now(),
		Config: s.currentOwner(),
	}
	for _, l := range snapshot {
		s.invokeListener(ctx, l, event, span)
	}
}

func (s *Store) invokeListener(ctx context.Context, l ReloadListener, event ReloadEvent, span ReloadSpan) {
	defer func() {
		if r := recover(); r != nil {
			span.ListenerPanic()
			s.logError(ctx, "reload listener panicked",
				"definition", s.def.Name, "panic", r)
		}
	}()
	l.ReloadPerformed(event)
}

// AddReloadListener 注册重载监听器。nil 监听器被忽略。
// 通知进行中注册是安全的，本轮通知不包含新监听器。
func (s *Store) AddReloadListener(l ReloadListener) {
	s.listeners.add(l)
}

// RemoveReloadListener 移除第一个等值的监听器，不存在时为空操作。
// 通知进行中移除是安全的，不影响本轮其余监听器。
func (s *Store) RemoveReloadListener(l ReloadListener) {
	s.listeners.remove(l)
}

// ListenerCount 返回当前注册的监听器数量。
func (s *Store) ListenerCount() int {
	return s.listeners.len()
}

// =============================================================================
// 同步重载检查挂接
// =============================================================================

// BindSyncCheck 挂接同步模式的过期检查回调，由重载触发器调用。
// 再次挂接会替换旧回调。
func (s *Store) BindSyncCheck(check func()) {
	if check == nil {
		return
	}
	s.syncCheck.Store(check)
}

// SyncReloadCheck 执行已挂接的过期检查；未挂接时为空操作。
// View 的每次读取都会先经过这里。
func (s *Store) SyncReloadCheck() {
	if f, ok := s.syncCheck.Load().(func()); ok {
		f()
	}
}

// =============================================================================
// 读操作
// =============================================================================

// GetProperty 返回键的当前值及其是否存在。
func (s *Store) GetProperty(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Get(key)
}

// GetPropertyOr 返回键的当前值，缺席时返回 def。
func (s *Store) GetPropertyOr(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.GetOr(key, def)
}

// PropertyNames 返回全部键的快照副本，按插入顺序。
func (s *Store) PropertyNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Keys()
}

// Len 返回条目数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Len()
}

// Properties 返回当前内容的 map 快照。
func (s *Store) Properties() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Map()
}

// Snapshot 返回当前内容的表快照，与存储互不影响。
func (s *Store) Snapshot() *xtable.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Clone()
}

// String 返回当前内容的 "key = value" 行文本。
func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.String()
}

// List 把当前内容以 "key = value" 行写入 w。
func (s *Store) List(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := io.WriteString(w, s.table.String())
	return err
}

// Store 把当前内容以 properties 文本写入 w，可带注释行。
func (s *Store) Store(w io.Writer, comment string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Store(w, comment)
}

// =============================================================================
// 写操作
// =============================================================================

// SetProperty 设置键值，返回旧值及其是否存在。
func (s *Store) SetProperty(key, value string) (prev string, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Set(key, value)
}

// PutProperty 设置键值；value 为 nil 等价于 RemoveProperty。
func (s *Store) PutProperty(key string, value *string) (prev string, existed bool) {
	if value == nil {
		return s.RemoveProperty(key)
	}
	return s.SetProperty(key, *value)
}

// RemoveProperty 删除键，返回旧值及其是否存在。
func (s *Store) RemoveProperty(key string) (prev string, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Delete(key)
}

// Clear 清空全部条目。不触发监听器。
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Clear()
}

// LoadFrom 把 properties 文本增量合并进存储（同键覆盖，余者保留）。
// 解析失败时已有内容不受影响。
func (s *Store) LoadFrom(r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Load(r)
}

// =============================================================================
// 日志辅助
// =============================================================================

func (s *Store) logDebug(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(ctx, msg, args...)
	}
}

func (s *Store) logError(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(ctx, msg, args...)
	} else {
		log.Printf("[ERROR] xstore: %s %v", msg, args)
	}
}
