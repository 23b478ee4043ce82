package eventbus

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/internal/util/logger"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

var log = logger.Logger("core/eventbus")

// ============================================================================
//                              Scope
// ============================================================================

// Scope 订阅作用域
type Scope int

const (
	// ScopeGlobal 显式注册的全局订阅
	ScopeGlobal Scope = iota
	// ScopeScene 激活场景树声明的订阅
	ScopeScene
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeScene:
		return "scene"
	default:
		return "unknown"
	}
}

// Target 分发目标
//
// 场景作用域的目标没有注册 ID，SubscriptionID 为 0。
type Target struct {
	SubscriptionID uint64
	Event          types.EventID
	Scope          Scope
	Callback       types.Callback
}

// ============================================================================
//                              Registry
// ============================================================================

type subscriber struct {
	id uint64
	cb types.Callback
}

// globalTable 不可变的全局订阅表，写入时整体替换
type globalTable map[types.EventID][]subscriber

// Registry 订阅注册表
//
// 全局表采用写时复制：写操作在 LevelEventManager 锁内生成新表并原子发布，
// 读操作直接读取当前快照，因此持有低级别锁的代码也能发布事件。
type Registry struct {
	lock   *lockorder.Lock
	global atomic.Pointer[globalTable]
	scene  atomic.Pointer[sceneScope]
	nextID atomic.Uint64
}

// NewRegistry 创建订阅注册表
func NewRegistry() *Registry {
	r := &Registry{
		lock: lockorder.New(lockorder.LevelEventManager, "eventbus.registry"),
	}
	empty := globalTable{}
	r.global.Store(&empty)
	r.scene.Store(&sceneScope{})
	return r
}

// Subscribe 注册全局订阅
//
// 同一事件的订阅按注册顺序调用。调用方已持有任何引擎锁时返回锁顺序错误。
func (r *Registry) Subscribe(ctx context.Context, id types.EventID, cb types.Callback) (*Subscription, error) {
	if id == "" {
		return nil, ErrEmptyEventID
	}
	if cb == nil {
		return nil, ErrNilCallback
	}

	sub := &Subscription{registry: r, event: id}
	err := r.write(ctx, "eventbus.subscribe", func(cur globalTable) globalTable {
		sub.id = r.nextID.Add(1)
		next := cloneTable(cur)
		next[id] = append(slices.Clip(cur[id]), subscriber{id: sub.id, cb: cb})
		return next
	})
	if err != nil {
		return nil, err
	}
	sub.active.Store(true)

	log.Debug("订阅已注册", "event", id, "subscription", sub.id)
	return sub, nil
}

// unsubscribe 移除全局订阅，返回是否找到
func (r *Registry) unsubscribe(ctx context.Context, id types.EventID, subID uint64) (bool, error) {
	found := false
	err := r.write(ctx, "eventbus.unsubscribe", func(cur globalTable) globalTable {
		subs := cur[id]
		idx := slices.IndexFunc(subs, func(s subscriber) bool { return s.id == subID })
		if idx < 0 {
			return cur
		}
		found = true
		next := cloneTable(cur)
		// 新切片，在途快照引用的旧切片保持不变
		remaining := slices.Delete(slices.Clone(subs), idx, idx+1)
		if len(remaining) == 0 {
			delete(next, id)
		} else {
			next[id] = remaining
		}
		return next
	})
	return found, err
}

// write 在注册表锁内生成并发布新的全局表
func (r *Registry) write(ctx context.Context, name string, fn func(globalTable) globalTable) error {
	ctx, ac := lockorder.Ensure(ctx, name)
	if err := r.lock.EnterContext(ctx, ac); err != nil {
		return err
	}
	defer func() { _ = r.lock.Exit(ac) }()

	next := fn(*r.global.Load())
	r.global.Store(&next)
	return nil
}

// Lookup 返回事件的分发目标快照
//
// 先全局（注册顺序）后场景（遍历顺序）。返回的切片由调用方独占。
// 没有目标时返回 nil。
func (r *Registry) Lookup(ctx context.Context, id types.EventID) ([]Target, error) {
	if id == "" {
		return nil, ErrEmptyEventID
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subs := (*r.global.Load())[id]
	scene := r.scene.Load().byEvent[id]
	if len(subs)+len(scene) == 0 {
		return nil, nil
	}

	targets := make([]Target, 0, len(subs)+len(scene))
	for _, s := range subs {
		targets = append(targets, Target{
			SubscriptionID: s.id,
			Event:          id,
			Scope:          ScopeGlobal,
			Callback:       s.cb,
		})
	}
	return append(targets, scene...), nil
}

// Count 返回事件当前的订阅数（全局 + 场景）
func (r *Registry) Count(id types.EventID) int {
	return len((*r.global.Load())[id]) + len(r.scene.Load().byEvent[id])
}

// GlobalCount 返回事件的全局订阅数
func (r *Registry) GlobalCount(id types.EventID) int {
	return len((*r.global.Load())[id])
}

// SceneEntries 返回当前场景作用域的订阅总数
func (r *Registry) SceneEntries() int {
	return r.scene.Load().entries
}

func cloneTable(t globalTable) globalTable {
	next := make(globalTable, len(t)+1)
	for k, v := range t {
		next[k] = v
	}
	return next
}
