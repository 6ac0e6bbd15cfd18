package xstore

import "time"

// ReloadEvent 是一次成功重载的通知载荷，不可变。
// 同一次重载的所有监听器收到相同的事件。
type ReloadEvent struct {
	// ID 本次重载的唯一标识。
	ID string
	// At 重载完成时间。
	At time.Time
	// Config 被重载的逻辑配置对象。默认为 *Store 自身，
	// 可通过 WithOwner / SetOwner 换成上层包装对象。
	Config any
}
