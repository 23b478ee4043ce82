// Package interfaces 定义 Starlight 公共接口
//
// 本文件定义事件核心与场景层之间的能力接口。
package interfaces

import "github.com/stbowers/Starlight-sub001/pkg/types"

// SceneNode 场景层级节点
//
// 事件核心只通过该接口的方法遍历场景树并收集订阅，不做运行时类型探测。
// 没有订阅的节点让 EventSubscriptions 返回 nil，不可隐藏的节点让 Hidden 返回 false。
type SceneNode interface {
	HasEventSubscriptions
	Hideable

	// Children 返回子节点（顺序即遍历顺序）
	Children() []SceneNode
}

// HasEventSubscriptions 声明事件订阅的节点能力
type HasEventSubscriptions interface {
	// EventSubscriptions 返回节点声明的订阅（顺序即调用顺序）
	EventSubscriptions() []types.EventSubscription
}

// Hideable 可隐藏节点能力
//
// 隐藏的节点及其整个子树不参与场景订阅收集。
type Hideable interface {
	Hidden() bool
}

// ScopeSetter 场景订阅作用域的接收方
//
// 场景层在结构变化时调用 SetActiveScope 触发整体重建。
type ScopeSetter interface {
	// SetActiveScope 用 roots 重建场景作用域，返回收集到的订阅数
	SetActiveScope(roots []SceneNode) int
}
