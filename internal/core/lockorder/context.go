package lockorder

import (
	"context"
	"fmt"
	"sync/atomic"
)

var nextContextID atomic.Uint64

// frame 级别栈中的一帧
//
// 单锁帧 locks 只有一个元素；组帧 locks 按 ID 升序保存整组锁。
// 栈底哨兵帧 locks 为空。
type frame struct {
	level Level
	locks []*Lock
	group bool
}

// Context 获取上下文（每个 goroutine 一个）
//
// 记录当前 goroutine 已获取锁的级别栈，栈底为 LevelUnconstrained。
// Context 不是并发安全的，只能由创建它的 goroutine 使用。
type Context struct {
	id     uint64
	name   string
	frames []frame
}

// NewContext 创建获取上下文
//
// name 仅用于诊断信息。
func NewContext(name string) *Context {
	return &Context{
		id:     nextContextID.Add(1),
		name:   name,
		frames: []frame{{level: LevelUnconstrained}},
	}
}

// ID 返回上下文的唯一 ID
func (ac *Context) ID() uint64 { return ac.id }

// Name 返回上下文名称
func (ac *Context) Name() string { return ac.name }

// String 返回 "name#id" 形式的标识
func (ac *Context) String() string {
	return fmt.Sprintf("%s#%d", ac.name, ac.id)
}

// Depth 返回当前获取深度（栈顶级别）
func (ac *Context) Depth() Level {
	return ac.frames[len(ac.frames)-1].level
}

// Held 返回当前持有的级别（按获取顺序，不含哨兵）
func (ac *Context) Held() []Level {
	levels := make([]Level, 0, len(ac.frames)-1)
	for _, f := range ac.frames[1:] {
		levels = append(levels, f.level)
	}
	return levels
}

// Holding 是否持有任何锁
func (ac *Context) Holding() bool {
	return len(ac.frames) > 1
}

func (ac *Context) push(f frame) {
	ac.frames = append(ac.frames, f)
}

// pop 弹出栈顶帧，哨兵帧永远不会被弹出
func (ac *Context) pop() {
	if len(ac.frames) > 1 {
		ac.frames[len(ac.frames)-1] = frame{}
		ac.frames = ac.frames[:len(ac.frames)-1]
	}
}

func (ac *Context) top() frame {
	return ac.frames[len(ac.frames)-1]
}

// ============================================================================
//                              context.Context 携带
// ============================================================================

type contextKey struct{}

// WithContext 返回携带获取上下文的 context.Context
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext 从 context.Context 中取出获取上下文
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	ac, ok := ctx.Value(contextKey{}).(*Context)
	return ac, ok && ac != nil
}

// Ensure 返回 ctx 中已有的获取上下文，没有则创建一个新的并附加到 ctx
//
// 新建的 Context 归调用方 goroutine 所有，不应把返回的 ctx 交给其他 goroutine
// 用于加锁。
func Ensure(ctx context.Context, name string) (context.Context, *Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ac, ok := FromContext(ctx); ok {
		return ctx, ac
	}
	ac := NewContext(name)
	return WithContext(ctx, ac), ac
}
