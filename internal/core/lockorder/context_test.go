package lockorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewContext 新上下文从哨兵深度开始
func TestNewContext(t *testing.T) {
	ac := NewContext("render")

	assert.Equal(t, LevelUnconstrained, ac.Depth())
	assert.Empty(t, ac.Held())
	assert.False(t, ac.Holding())
	assert.Equal(t, "render", ac.Name())
	assert.Contains(t, ac.String(), "render#")
}

// TestNewContext_UniqueIDs 上下文 ID 唯一
func TestNewContext_UniqueIDs(t *testing.T) {
	a := NewContext("a")
	b := NewContext("b")
	assert.NotEqual(t, a.ID(), b.ID())
}

// TestContext_PopKeepsSentinel 哨兵帧不会被弹出
func TestContext_PopKeepsSentinel(t *testing.T) {
	ac := NewContext("sentinel")
	ac.pop()
	ac.pop()
	assert.Equal(t, LevelUnconstrained, ac.Depth())
}

// TestWithContext 测试 context.Context 携带
func TestWithContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ac := NewContext("carried")
	ctx := WithContext(context.Background(), ac)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, ac, got)

	_, ok = FromContext(WithContext(context.Background(), nil))
	assert.False(t, ok)
}

// TestEnsure 已有则复用，没有则创建
func TestEnsure(t *testing.T) {
	ctx, ac := Ensure(context.Background(), "lazy")
	require.NotNil(t, ac)
	assert.Equal(t, "lazy", ac.Name())

	ctx2, ac2 := Ensure(ctx, "other")
	assert.Same(t, ac, ac2)
	assert.Equal(t, ctx, ctx2)

	//nolint:staticcheck // nil ctx 按 Background 处理
	_, ac3 := Ensure(nil, "nil-parent")
	require.NotNil(t, ac3)
}

// TestEnsure_DepthTravelsWithContext 通过 ctx 传递时深度约束随之生效
func TestEnsure_DepthTravelsWithContext(t *testing.T) {
	ctx, ac := Ensure(context.Background(), "travel")
	collection := New(LevelManagedCollection, "objects")
	events := New(LevelEventManager, "events")

	require.NoError(t, collection.Enter(ac))
	defer func() { _ = collection.Exit(ac) }()

	_, carried := Ensure(ctx, "ignored")
	assert.ErrorIs(t, events.Enter(carried), ErrLockOrderViolation)
}
