package lockorder

import (
	"cmp"
	"context"
	"slices"
)

// EnterMultiple 原子地获取一组同级锁
//
// 所有锁级别必须相同（否则 *MixedLevelError），且低于当前深度。
// 获取顺序按锁 ID 升序，与参数顺序无关；整组只在级别栈上压入一帧。
func EnterMultiple(ac *Context, locks ...*Lock) error {
	return EnterMultipleContext(context.Background(), ac, locks...)
}

// EnterMultipleContext 原子地获取一组同级锁，等待可被 ctx 取消
//
// 中途取消时，已获取的锁按逆序释放，级别栈不变，
// 返回包装 ctx.Err() 的 *PartialAcquireError。
func EnterMultipleContext(ctx context.Context, ac *Context, locks ...*Lock) error {
	if ac == nil {
		return ErrNilContext
	}

	sorted, err := prepareGroup(ac, OpEnterMultiple, locks)
	if err != nil {
		return err
	}

	level := sorted[0].level
	if depth := ac.Depth(); level >= depth {
		return violation(&LockOrderError{
			Op:      OpEnterMultiple,
			Context: ac.String(),
			Lock:    lockNames(sorted),
			Level:   level,
			Depth:   depth,
		})
	}

	for i, l := range sorted {
		if err := l.acquire(ctx); err != nil {
			rolledBack := make([]string, 0, i)
			for j := i - 1; j >= 0; j-- {
				sorted[j].release(ac)
				rolledBack = append(rolledBack, sorted[j].name)
			}
			log.Debug("锁组获取中止，已回滚", "context", ac.String(), "waiting", l.name, "rolled_back", len(rolledBack))
			return &PartialAcquireError{
				Context:    ac.String(),
				RolledBack: rolledBack,
				Waiting:    l.name,
				Err:        err,
			}
		}
		l.owner.Store(ac)
	}

	ac.push(frame{level: level, locks: sorted, group: true})
	return nil
}

// ExitMultiple 释放通过 EnterMultiple 获取的整组锁
//
// 参数必须与栈顶组帧是同一组锁（顺序不限），否则返回 *LockOrderError 且栈不变。
func ExitMultiple(ac *Context, locks ...*Lock) error {
	if ac == nil {
		return ErrNilContext
	}

	sorted, err := prepareGroup(ac, OpExitMultiple, locks)
	if err != nil {
		return err
	}

	top := ac.top()
	if !top.group || !slices.Equal(top.locks, sorted) {
		return violation(&LockOrderError{
			Op:      OpExitMultiple,
			Context: ac.String(),
			Lock:    lockNames(sorted),
			Level:   sorted[0].level,
			Depth:   ac.Depth(),
		})
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i].release(ac)
	}
	ac.pop()
	return nil
}

// prepareGroup 校验锁组并返回按 ID 升序排列的副本
func prepareGroup(ac *Context, op Op, locks []*Lock) ([]*Lock, error) {
	if len(locks) == 0 {
		return nil, ErrEmptyGroup
	}

	seen := make(map[uint64]struct{}, len(locks))
	for _, l := range locks {
		if l == nil {
			return nil, ErrNilLock
		}
		if _, dup := seen[l.id]; dup {
			return nil, ErrDuplicateLock
		}
		seen[l.id] = struct{}{}
	}

	level := locks[0].level
	for _, l := range locks[1:] {
		if l.level != level {
			mixed := &MixedLevelError{
				Op:      op,
				Context: ac.String(),
				Locks:   make([]string, len(locks)),
				Levels:  make([]Level, len(locks)),
			}
			for i, l := range locks {
				mixed.Locks[i] = l.name
				mixed.Levels[i] = l.level
			}
			return nil, violation(mixed)
		}
	}

	return sortedByID(locks), nil
}

func sortedByID(locks []*Lock) []*Lock {
	sorted := slices.Clone(locks)
	slices.SortFunc(sorted, func(a, b *Lock) int {
		return cmp.Compare(a.id, b.id)
	})
	return sorted
}
