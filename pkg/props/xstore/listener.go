package xstore

import (
	"reflect"
	"sync"
)

// ReloadListener 在每次成功重载后被调用一次。
//
// 回调在 Reload 调用方的 goroutine 上同步执行，按注册顺序进行；
// 此时存储的写锁已释放，回调里可以自由读写存储、增删监听器。
type ReloadListener interface {
	ReloadPerformed(event ReloadEvent)
}

// ListenerFunc 把函数适配为可注册、可移除的监听器。
// 返回值持有指针身份，先保存再注册才能在之后移除同一个监听器。
func ListenerFunc(fn func(ReloadEvent)) ReloadListener {
	return &funcListener{fn: fn}
}

type funcListener struct {
	fn func(ReloadEvent)
}

func (l *funcListener) ReloadPerformed(event ReloadEvent) {
	if l.fn != nil {
		l.fn(event)
	}
}

// listenerRegistry 维护有序的监听器集合。
// 注册顺序即通知顺序；增删与通知可以并发，通知迭代的是快照。
type listenerRegistry struct {
	mu        sync.Mutex
	listeners []ReloadListener
}

func (r *listenerRegistry) add(l ReloadListener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// remove 移除第一个等值的监听器，不存在时为空操作。
func (r *listenerRegistry) remove(target ReloadListener) {
	if target == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.listeners {
		if listenerEqual(l, target) {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

func (r *listenerRegistry) snapshot() []ReloadListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ReloadListener, len(r.listeners))
	copy(out, r.listeners)
	return out
}

func (r *listenerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// listenerEqual 比较两个监听器是否为同一个。
// 动态类型不可比较的监听器（如含切片字段的值类型）按不相等处理，
// 避免接口比较 panic 破坏"移除不得抛出"的约定。
func listenerEqual(a, b ReloadListener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta != nil && !ta.Comparable() {
		return false
	}
	return a == b
}
