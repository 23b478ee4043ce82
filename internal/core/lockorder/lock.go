package lockorder

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var nextLockID atomic.Uint64

// Lock 分级互斥锁
//
// 级别在创建后不可变。ID 按创建顺序单调分配，
// 作为同级多锁获取时的稳定排序键（不使用内存地址，保证可复现）。
type Lock struct {
	id    uint64
	level Level
	name  string

	// sem 权重为 1 的信号量充当互斥量，等待可被 context 取消
	sem *semaphore.Weighted

	// owner 当前持有者，等价于"本 goroutine 是否持有"标志
	owner atomic.Pointer[Context]
}

// New 创建分级锁
func New(level Level, name string) *Lock {
	id := nextLockID.Add(1)
	if name == "" {
		name = fmt.Sprintf("lock-%d", id)
	}
	return &Lock{
		id:    id,
		level: level,
		name:  name,
		sem:   semaphore.NewWeighted(1),
	}
}

// ID 返回锁实例 ID
func (l *Lock) ID() uint64 { return l.id }

// Level 返回锁级别
func (l *Lock) Level() Level { return l.level }

// Name 返回锁名称
func (l *Lock) Name() string { return l.name }

// String 返回诊断用描述
func (l *Lock) String() string {
	return fmt.Sprintf("%s(#%d, %s)", l.name, l.id, l.level)
}

// Enter 获取锁
//
// 级别必须严格小于 ac 的当前深度，否则立即返回 *LockOrderError，
// 不会阻塞也不会占用互斥量。
func (l *Lock) Enter(ac *Context) error {
	return l.EnterContext(context.Background(), ac)
}

// EnterContext 获取锁，等待可被 ctx 取消
//
// 取消时级别栈恢复原状并返回 ctx.Err()。
func (l *Lock) EnterContext(ctx context.Context, ac *Context) error {
	if ac == nil {
		return ErrNilContext
	}
	if err := l.checkEnter(ac); err != nil {
		return err
	}

	ac.push(frame{level: l.level, locks: []*Lock{l}})
	if err := l.acquire(ctx); err != nil {
		ac.pop()
		return err
	}
	l.owner.Store(ac)
	return nil
}

// TryEnter 尝试非阻塞获取锁
//
// 顺序检查与 Enter 相同；互斥量被占用时返回 (false, nil)。
func (l *Lock) TryEnter(ac *Context) (bool, error) {
	if ac == nil {
		return false, ErrNilContext
	}
	if err := l.checkEnter(ac); err != nil {
		return false, err
	}

	if !l.sem.TryAcquire(1) {
		return false, nil
	}
	ac.push(frame{level: l.level, locks: []*Lock{l}})
	l.owner.Store(ac)
	return true, nil
}

// Exit 释放锁
//
// 栈顶帧必须是本锁通过 Enter 压入的帧，否则返回 *LockOrderError 且栈不变。
// 组内的锁只能通过 ExitMultiple 释放。
func (l *Lock) Exit(ac *Context) error {
	if ac == nil {
		return ErrNilContext
	}

	top := ac.top()
	if top.group || len(top.locks) != 1 || top.locks[0] != l {
		return violation(&LockOrderError{
			Op:      OpExit,
			Context: ac.String(),
			Lock:    l.name,
			Level:   l.level,
			Depth:   ac.Depth(),
		})
	}

	l.release(ac)
	ac.pop()
	return nil
}

// Do 在持有锁期间执行 fn
func (l *Lock) Do(ac *Context, fn func() error) error {
	if err := l.Enter(ac); err != nil {
		return err
	}
	defer func() { _ = l.Exit(ac) }()
	return fn()
}

// IsLockedBy 返回 ac 是否持有本锁
func (l *Lock) IsLockedBy(ac *Context) bool {
	return ac != nil && l.owner.Load() == ac
}

// IsLocked 返回本锁当前是否被任意上下文持有
func (l *Lock) IsLocked() bool {
	return l.owner.Load() != nil
}

func (l *Lock) checkEnter(ac *Context) error {
	if depth := ac.Depth(); l.level >= depth {
		return violation(&LockOrderError{
			Op:      OpEnter,
			Context: ac.String(),
			Lock:    l.name,
			Level:   l.level,
			Depth:   depth,
		})
	}
	return nil
}

func (l *Lock) acquire(ctx context.Context) error {
	if l.sem.TryAcquire(1) {
		return nil
	}
	return l.sem.Acquire(ctx, 1)
}

// release 仅当 ac 持有本锁时释放互斥量
func (l *Lock) release(ac *Context) {
	if l.owner.CompareAndSwap(ac, nil) {
		l.sem.Release(1)
	}
}
