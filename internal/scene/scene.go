package scene

import (
	"context"

	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/internal/util/logger"
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

var log = logger.Logger("scene")

// Scene 场景
//
// 根节点有序，遍历顺序即订阅调用顺序。所有修改都在场景锁内进行，
// 场景激活时每次修改后整体重建事件注册表的场景作用域。
type Scene struct {
	name string
	lock *lockorder.Lock

	// 以下字段受 lock 保护
	roots   []*Node
	manager *Manager
	scope   interfaces.ScopeSetter // 仅激活时非 nil
}

// New 创建场景
func New(name string) *Scene {
	return &Scene{
		name: name,
		lock: lockorder.New(lockorder.LevelManagedCollection, "scene."+name),
	}
}

// Name 返回场景名称
func (s *Scene) Name() string { return s.name }

// Add 把 node（连同其子树）挂到 parent 下，parent 为 nil 时作为根节点
func (s *Scene) Add(ctx context.Context, parent, node *Node) error {
	if node == nil {
		return ErrNilNode
	}
	return s.modify(ctx, "scene.add", func() error {
		if node.scene != nil || node.parent != nil {
			return ErrNodeAttached
		}
		if parent == nil {
			s.roots = append(s.roots, node)
		} else {
			if parent.scene != s {
				return ErrNodeNotInScene
			}
			node.parent = parent
			parent.children = append(parent.children, node)
		}
		node.setScene(s)
		return nil
	})
}

// Remove 移除 node 及其子树
func (s *Scene) Remove(ctx context.Context, node *Node) error {
	if node == nil {
		return ErrNilNode
	}
	return s.modify(ctx, "scene.remove", func() error {
		if node.scene != s {
			return ErrNodeNotInScene
		}
		if node.parent == nil {
			for i, r := range s.roots {
				if r == node {
					s.roots = append(s.roots[:i:i], s.roots[i+1:]...)
					break
				}
			}
		} else {
			node.parent.removeChild(node)
			node.parent = nil
		}
		node.setScene(nil)
		return nil
	})
}

// SetHidden 设置节点隐藏状态，隐藏节点的整个子树不参与订阅
func (s *Scene) SetHidden(ctx context.Context, node *Node, hidden bool) error {
	if node == nil {
		return ErrNilNode
	}
	return s.modify(ctx, "scene.hide", func() error {
		if node.scene != s {
			return ErrNodeNotInScene
		}
		node.hidden = hidden
		return nil
	})
}

// AddSubscription 为节点追加订阅声明
func (s *Scene) AddSubscription(ctx context.Context, node *Node, sub types.EventSubscription) error {
	if node == nil {
		return ErrNilNode
	}
	return s.modify(ctx, "scene.subscribe", func() error {
		if node.scene != s {
			return ErrNodeNotInScene
		}
		node.subs = append(node.subs[:len(node.subs):len(node.subs)], sub)
		return nil
	})
}

// Roots 返回根节点快照
func (s *Scene) Roots(ctx context.Context) ([]interfaces.SceneNode, error) {
	var roots []interfaces.SceneNode
	err := s.withLock(ctx, "scene.roots", func() error {
		roots = s.rootsLocked()
		return nil
	})
	return roots, err
}

// Active 返回场景当前是否激活
func (s *Scene) Active(ctx context.Context) (bool, error) {
	var active bool
	err := s.withLock(ctx, "scene.active", func() error {
		active = s.scope != nil
		return nil
	})
	return active, err
}

// modify 在场景锁内执行修改，成功后重建作用域
func (s *Scene) modify(ctx context.Context, name string, fn func() error) error {
	return s.withLock(ctx, name, func() error {
		if err := fn(); err != nil {
			return err
		}
		s.rebuildLocked()
		return nil
	})
}

func (s *Scene) withLock(ctx context.Context, name string, fn func() error) error {
	ctx, ac := lockorder.Ensure(ctx, name)
	if err := s.lock.EnterContext(ctx, ac); err != nil {
		return err
	}
	defer func() { _ = s.lock.Exit(ac) }()
	return fn()
}

func (s *Scene) rootsLocked() []interfaces.SceneNode {
	out := make([]interfaces.SceneNode, len(s.roots))
	for i, r := range s.roots {
		out[i] = r
	}
	return out
}

// rebuildLocked 激活时重建场景作用域，调用方持有场景锁
func (s *Scene) rebuildLocked() {
	if s.scope == nil {
		return
	}
	n := s.scope.SetActiveScope(s.rootsLocked())
	log.Debug("场景作用域已重建", "scene", s.name, "subscriptions", n)
}
