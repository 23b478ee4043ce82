// Package types 定义 Starlight 公共类型
//
// 本文件定义事件相关类型。
package types

import "context"

// ============================================================================
//                              EventID - 事件标识
// ============================================================================

// EventID 事件标识
//
// 由各事件生产模块约定的进程级常量，事件核心把它当作不透明字符串。
type EventID string

// String 返回事件标识字符串
func (id EventID) String() string {
	return string(id)
}

// 引擎自身发布的事件
const (
	// EventEnginePhase 引擎生命周期阶段变更，payload 为 PhaseChange
	EventEnginePhase EventID = "engine.phase"
)

// ============================================================================
//                              Callback - 订阅回调
// ============================================================================

// Callback 订阅回调
//
// ctx 携带执行该回调的 goroutine 专属的锁获取上下文；
// 返回的错误（以及 panic）会被分发器隔离并记录，不影响同批其他回调。
type Callback func(ctx context.Context, sender, payload any) error

// EventSubscription 事件订阅声明（事件标识 + 回调）
type EventSubscription struct {
	Event    EventID
	Callback Callback
}

// Subscribe 构造订阅声明
func Subscribe(id EventID, cb Callback) EventSubscription {
	return EventSubscription{Event: id, Callback: cb}
}

// PhaseChange 引擎阶段变更事件载荷
type PhaseChange struct {
	From string
	To   string
}
