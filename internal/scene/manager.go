package scene

import (
	"context"
	"sync/atomic"

	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
)

// Manager 场景栈
//
// 栈顶场景为激活场景。入栈出栈时用一个多锁组同时锁住 Manager 与新旧栈顶场景，
// 切换作用域接收方后整体重建。
type Manager struct {
	lock  *lockorder.Lock
	scope interfaces.ScopeSetter

	// stack 受 lock 保护
	stack []*Scene

	active atomic.Pointer[Scene]
}

// NewManager 创建场景栈，scope 通常是事件注册表
func NewManager(scope interfaces.ScopeSetter) *Manager {
	return &Manager{
		lock:  lockorder.New(lockorder.LevelManagedCollection, "scene.manager"),
		scope: scope,
	}
}

// Active 返回激活场景，栈为空时返回 nil
func (m *Manager) Active() *Scene {
	return m.active.Load()
}

// Push 把场景压入栈顶并激活
func (m *Manager) Push(ctx context.Context, s *Scene) error {
	if s == nil {
		return ErrNilScene
	}
	ctx, ac := lockorder.Ensure(ctx, "scene.push")

	for {
		prev, _, err := m.peek(ctx, ac)
		if err != nil {
			return err
		}
		if prev == s {
			return ErrSceneOnStack
		}

		group := []*lockorder.Lock{m.lock, s.lock}
		if prev != nil {
			group = append(group, prev.lock)
		}
		done, err := m.withGroup(ctx, ac, group, func() (bool, error) {
			if m.topLocked() != prev {
				return false, nil
			}
			if s.manager != nil {
				return true, ErrSceneOnStack
			}
			if prev != nil {
				prev.scope = nil
			}
			s.manager = m
			s.scope = m.scope
			m.stack = append(m.stack, s)
			m.active.Store(s)
			s.rebuildLocked()

			log.Info("场景已入栈", "scene", s.name, "depth", len(m.stack))
			return true, nil
		})
		if done || err != nil {
			return err
		}
	}
}

// Pop 弹出栈顶场景，下一个场景（如果有）成为激活场景
func (m *Manager) Pop(ctx context.Context) (*Scene, error) {
	ctx, ac := lockorder.Ensure(ctx, "scene.pop")

	for {
		top, next, err := m.peek(ctx, ac)
		if err != nil {
			return nil, err
		}
		if top == nil {
			return nil, ErrEmptyStack
		}

		group := []*lockorder.Lock{m.lock, top.lock}
		if next != nil {
			group = append(group, next.lock)
		}
		done, err := m.withGroup(ctx, ac, group, func() (bool, error) {
			if m.topLocked() != top || m.belowLocked() != next {
				return false, nil
			}

			top.scope = nil
			top.manager = nil
			m.stack[len(m.stack)-1] = nil
			m.stack = m.stack[:len(m.stack)-1]

			if next != nil {
				next.scope = m.scope
				m.active.Store(next)
				next.rebuildLocked()
			} else {
				m.active.Store(nil)
				if m.scope != nil {
					m.scope.SetActiveScope(nil)
				}
			}

			log.Info("场景已出栈", "scene", top.name, "depth", len(m.stack))
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		if done {
			return top, nil
		}
	}
}

// Depth 返回栈深度
func (m *Manager) Depth(ctx context.Context) (int, error) {
	ctx, ac := lockorder.Ensure(ctx, "scene.depth")
	if err := m.lock.EnterContext(ctx, ac); err != nil {
		return 0, err
	}
	defer func() { _ = m.lock.Exit(ac) }()
	return len(m.stack), nil
}

// peek 读取栈顶与其下方的场景
func (m *Manager) peek(ctx context.Context, ac *lockorder.Context) (top, below *Scene, err error) {
	if err := m.lock.EnterContext(ctx, ac); err != nil {
		return nil, nil, err
	}
	defer func() { _ = m.lock.Exit(ac) }()
	return m.topLocked(), m.belowLocked(), nil
}

// withGroup 持有多锁组执行 fn；fn 返回 false 表示栈顶已变化需要重试
func (m *Manager) withGroup(ctx context.Context, ac *lockorder.Context, group []*lockorder.Lock, fn func() (bool, error)) (bool, error) {
	if err := lockorder.EnterMultipleContext(ctx, ac, group...); err != nil {
		return false, err
	}
	defer func() { _ = lockorder.ExitMultiple(ac, group...) }()
	return fn()
}

func (m *Manager) topLocked() *Scene {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *Manager) belowLocked() *Scene {
	if len(m.stack) < 2 {
		return nil
	}
	return m.stack[len(m.stack)-2]
}
