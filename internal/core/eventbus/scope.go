package eventbus

import (
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// sceneScope 不可变的场景作用域
type sceneScope struct {
	entries int
	byEvent map[types.EventID][]Target
}

// SetActiveScope 用 roots 重建场景作用域
//
// 深度优先先序遍历：roots 按切片顺序，子节点按 Children() 顺序。
// 隐藏节点连同其整个子树被跳过。结果整体替换旧作用域（原子交换），
// 已拍下的分发快照不受影响。roots 为 nil 时清空作用域。
// 返回收集到的订阅数。
func (r *Registry) SetActiveScope(roots []interfaces.SceneNode) int {
	scope := flattenScene(roots)
	r.scene.Store(scope)
	log.Debug("场景作用域已重建", "roots", len(roots), "entries", scope.entries)
	return scope.entries
}

// ClearScope 清空场景作用域
func (r *Registry) ClearScope() {
	r.SetActiveScope(nil)
}

func flattenScene(roots []interfaces.SceneNode) *sceneScope {
	scope := &sceneScope{byEvent: make(map[types.EventID][]Target)}

	var walk func(n interfaces.SceneNode)
	walk = func(n interfaces.SceneNode) {
		if n == nil {
			return
		}
		if n.Hidden() {
			return
		}
		for _, sub := range n.EventSubscriptions() {
			if sub.Event == "" || sub.Callback == nil {
				log.Warn("忽略无效的场景订阅", "event", sub.Event)
				continue
			}
			scope.byEvent[sub.Event] = append(scope.byEvent[sub.Event], Target{
				Event:    sub.Event,
				Scope:    ScopeScene,
				Callback: sub.Callback,
			})
			scope.entries++
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}

	for _, root := range roots {
		walk(root)
	}
	return scope
}
