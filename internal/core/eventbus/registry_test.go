package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

func noop(context.Context, any, any) error { return nil }

// ============================================================================
//                              Subscribe / Unsubscribe
// ============================================================================

func TestRegistry_SubscribeValidation(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	_, err := reg.Subscribe(ctx, "", noop)
	assert.ErrorIs(t, err, ErrEmptyEventID)

	_, err = reg.Subscribe(ctx, "keyboard", nil)
	assert.ErrorIs(t, err, ErrNilCallback)

	assert.Equal(t, 0, reg.Count("keyboard"))
}

func TestRegistry_SubscribeOrderAndIDs(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	a, err := reg.Subscribe(ctx, "keyboard", noop)
	require.NoError(t, err)
	b, err := reg.Subscribe(ctx, "keyboard", noop)
	require.NoError(t, err)
	c, err := reg.Subscribe(ctx, "mouse", noop)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, b.ID(), c.ID())
	assert.True(t, a.Active())
	assert.Equal(t, types.EventID("mouse"), c.Event())

	targets, err := reg.Lookup(ctx, "keyboard")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, a.ID(), targets[0].SubscriptionID)
	assert.Equal(t, b.ID(), targets[1].SubscriptionID)
	assert.Equal(t, ScopeGlobal, targets[0].Scope)
}

func TestRegistry_Unsubscribe(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	a, err := reg.Subscribe(ctx, "keyboard", noop)
	require.NoError(t, err)
	b, err := reg.Subscribe(ctx, "keyboard", noop)
	require.NoError(t, err)

	before, err := reg.Lookup(ctx, "keyboard")
	require.NoError(t, err)

	require.NoError(t, a.Unsubscribe(ctx))
	assert.False(t, a.Active())
	require.NoError(t, a.Unsubscribe(ctx), "重复取消应当无害")

	after, err := reg.Lookup(ctx, "keyboard")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, b.ID(), after[0].SubscriptionID)

	// 取消前拿到的快照不受影响
	require.Len(t, before, 2)
	assert.Equal(t, a.ID(), before[0].SubscriptionID)

	require.NoError(t, b.Unsubscribe(ctx))
	targets, err := reg.Lookup(ctx, "keyboard")
	require.NoError(t, err)
	assert.Nil(t, targets)
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()
	_, err := reg.Subscribe(ctx, "keyboard", noop)
	require.NoError(t, err)

	first, err := reg.Lookup(ctx, "keyboard")
	require.NoError(t, err)
	first[0].SubscriptionID = 9999

	second, err := reg.Lookup(ctx, "keyboard")
	require.NoError(t, err)
	assert.NotEqual(t, uint64(9999), second[0].SubscriptionID)
}

func TestRegistry_LookupValidation(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyEventID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = reg.Lookup(ctx, "keyboard")
	assert.ErrorIs(t, err, context.Canceled)

	// nil ctx 按 Background 处理
	_, err = reg.Subscribe(context.Background(), "keyboard", noop)
	require.NoError(t, err)
	var nilCtx context.Context
	targets, err := reg.Lookup(nilCtx, "keyboard")
	require.NoError(t, err)
	assert.Len(t, targets, 1)
}

// 已持有任何引擎锁时不能再获取注册表锁
func TestRegistry_SubscribeWhileHoldingLock(t *testing.T) {
	reg := NewRegistry()
	ac := lockorder.NewContext("holder")
	objects := lockorder.New(lockorder.LevelManagedCollection, "objects")
	require.NoError(t, objects.Enter(ac))
	defer func() { require.NoError(t, objects.Exit(ac)) }()

	ctx := lockorder.WithContext(context.Background(), ac)
	_, err := reg.Subscribe(ctx, "keyboard", noop)
	assert.ErrorIs(t, err, lockorder.ErrLockOrderViolation)
	assert.Equal(t, 0, reg.Count("keyboard"))

	// 查找不持锁
	_, err = reg.Lookup(ctx, "keyboard")
	assert.NoError(t, err)
}

func TestRegistry_ConcurrentSubscribe(t *testing.T) {
	reg := NewRegistry()
	const (
		workers = 50
		perWork = 20
	)

	var wg sync.WaitGroup
	ids := make(chan uint64, workers*perWork)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				sub, err := reg.Subscribe(context.Background(), "tick", noop)
				if !assert.NoError(t, err) {
					return
				}
				ids <- sub.ID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	registered := make(map[uint64]bool)
	for id := range ids {
		registered[id] = true
	}
	require.Len(t, registered, workers*perWork)
	assert.Equal(t, workers*perWork, reg.Count("tick"))

	targets, err := reg.Lookup(context.Background(), "tick")
	require.NoError(t, err)
	seen := make(map[uint64]bool)
	for _, tgt := range targets {
		assert.False(t, seen[tgt.SubscriptionID], "重复订阅 %d", tgt.SubscriptionID)
		assert.True(t, registered[tgt.SubscriptionID])
		seen[tgt.SubscriptionID] = true
	}
	assert.Len(t, seen, workers*perWork)
}

// ============================================================================
//                              场景作用域
// ============================================================================

func TestRegistry_SetActiveScopeOrder(t *testing.T) {
	reg := NewRegistry()
	rec := newRecorder()

	//   root1 (a)
	//     ├── child1 (b)
	//     │     └── grandchild (c)
	//     └── child2 (d, e)
	//   root2 (f)
	grandchild := &testNode{subs: []types.EventSubscription{types.Subscribe("evt", rec.callback("c"))}}
	child1 := &testNode{
		subs:     []types.EventSubscription{types.Subscribe("evt", rec.callback("b"))},
		children: []interfaces.SceneNode{grandchild},
	}
	child2 := &testNode{subs: []types.EventSubscription{
		types.Subscribe("evt", rec.callback("d")),
		types.Subscribe("other", rec.callback("x")),
		types.Subscribe("evt", rec.callback("e")),
	}}
	root1 := &testNode{
		subs:     []types.EventSubscription{types.Subscribe("evt", rec.callback("a"))},
		children: []interfaces.SceneNode{child1, child2},
	}
	root2 := &testNode{subs: []types.EventSubscription{types.Subscribe("evt", rec.callback("f"))}}

	n := reg.SetActiveScope([]interfaces.SceneNode{root1, root2})
	assert.Equal(t, 7, n)
	assert.Equal(t, 7, reg.SceneEntries())
	assert.Equal(t, 6, reg.Count("evt"))
	assert.Equal(t, 0, reg.GlobalCount("evt"))

	targets, err := reg.Lookup(context.Background(), "evt")
	require.NoError(t, err)
	for _, tgt := range targets {
		assert.Equal(t, ScopeScene, tgt.Scope)
		require.NoError(t, tgt.Callback(context.Background(), nil, nil))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, rec.drain())
}

func TestRegistry_HiddenSubtreeSkipped(t *testing.T) {
	reg := NewRegistry()

	visibleChild := &testNode{subs: []types.EventSubscription{types.Subscribe("evt", noop)}}
	hidden := &testNode{
		hidden:   true,
		subs:     []types.EventSubscription{types.Subscribe("evt", noop)},
		children: []interfaces.SceneNode{visibleChild},
	}
	root := &plainNode{children: []interfaces.SceneNode{hidden, nil}}

	assert.Equal(t, 0, reg.SetActiveScope([]interfaces.SceneNode{root}))

	hidden.hidden = false
	assert.Equal(t, 2, reg.SetActiveScope([]interfaces.SceneNode{root}))
}

// countingNode 记录遍历时各方法的调用次数
type countingNode struct {
	plainNode
	subs   []types.EventSubscription
	hidden bool
	calls  map[string]int
}

func (n *countingNode) EventSubscriptions() []types.EventSubscription {
	n.calls["subs"]++
	return n.subs
}

func (n *countingNode) Hidden() bool {
	n.calls["hidden"]++
	return n.hidden
}

func TestRegistry_SetActiveScopeUsesNodeMethods(t *testing.T) {
	reg := NewRegistry()

	leaf := &countingNode{
		subs:  []types.EventSubscription{types.Subscribe("evt", noop)},
		calls: map[string]int{},
	}
	group := &countingNode{
		plainNode: plainNode{children: []interfaces.SceneNode{leaf}},
		calls:     map[string]int{},
	}

	// 不声明订阅的分组节点仍然遍历其子树
	assert.Equal(t, 1, reg.SetActiveScope([]interfaces.SceneNode{group}))
	assert.Equal(t, map[string]int{"hidden": 1, "subs": 1}, group.calls)
	assert.Equal(t, map[string]int{"hidden": 1, "subs": 1}, leaf.calls)

	// 隐藏节点不再收集订阅，也不进入子树
	group.hidden = true
	assert.Equal(t, 0, reg.SetActiveScope([]interfaces.SceneNode{group}))
	assert.Equal(t, map[string]int{"hidden": 2, "subs": 1}, group.calls)
	assert.Equal(t, map[string]int{"hidden": 1, "subs": 1}, leaf.calls)
}

func TestRegistry_SetActiveScopeSkipsInvalid(t *testing.T) {
	reg := NewRegistry()
	node := &testNode{subs: []types.EventSubscription{
		{Event: "", Callback: noop},
		{Event: "evt", Callback: nil},
		types.Subscribe("evt", noop),
	}}
	assert.Equal(t, 1, reg.SetActiveScope([]interfaces.SceneNode{node}))
}

func TestRegistry_GlobalBeforeScene(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	node := &testNode{subs: []types.EventSubscription{types.Subscribe("evt", noop)}}
	reg.SetActiveScope([]interfaces.SceneNode{node})
	sub, err := reg.Subscribe(ctx, "evt", noop)
	require.NoError(t, err)

	targets, err := reg.Lookup(ctx, "evt")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, ScopeGlobal, targets[0].Scope)
	assert.Equal(t, sub.ID(), targets[0].SubscriptionID)
	assert.Equal(t, ScopeScene, targets[1].Scope)
	assert.Zero(t, targets[1].SubscriptionID)
}

func TestRegistry_ClearScope(t *testing.T) {
	reg := NewRegistry()
	node := &testNode{subs: []types.EventSubscription{types.Subscribe("evt", noop)}}

	reg.SetActiveScope([]interfaces.SceneNode{node})
	before, err := reg.Lookup(context.Background(), "evt")
	require.NoError(t, err)

	reg.ClearScope()
	assert.Equal(t, 0, reg.SceneEntries())
	after, err := reg.Lookup(context.Background(), "evt")
	require.NoError(t, err)
	assert.Empty(t, after)
	assert.Len(t, before, 1)
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "global", ScopeGlobal.String())
	assert.Equal(t, "scene", ScopeScene.String())
	assert.Equal(t, "unknown", Scope(42).String())
}
