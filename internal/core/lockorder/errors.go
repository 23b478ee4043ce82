package lockorder

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrLockOrderViolation 违反锁获取/释放顺序
	ErrLockOrderViolation = errors.New("lock order violation")

	// ErrMixedLevel 同组锁级别不一致
	ErrMixedLevel = errors.New("mixed lock levels in group")

	// ErrEmptyGroup 空锁组
	ErrEmptyGroup = errors.New("empty lock group")

	// ErrDuplicateLock 锁组中出现重复的锁
	ErrDuplicateLock = errors.New("duplicate lock in group")

	// ErrNilContext 未提供获取上下文
	ErrNilContext = errors.New("nil acquisition context")

	// ErrNilLock 锁组中包含 nil
	ErrNilLock = errors.New("nil lock in group")
)

// Op 加锁操作类型
type Op string

const (
	OpEnter         Op = "enter"
	OpExit          Op = "exit"
	OpEnterMultiple Op = "enter-multiple"
	OpExitMultiple  Op = "exit-multiple"
)

// LockOrderError 锁顺序违规
//
// 属于编程错误，不应重试。errors.Is(err, ErrLockOrderViolation) 为 true。
type LockOrderError struct {
	Op      Op
	Context string // 违规的获取上下文（name#id）
	Lock    string // 锁名称，组操作时为逗号分隔的名称列表
	Level   Level  // 尝试获取/释放的级别
	Depth   Level  // 违规时的当前深度
}

func (e *LockOrderError) Error() string {
	return fmt.Sprintf("lock order violation: %s %q (level %s) from %s at depth %s",
		e.Op, e.Lock, e.Level, e.Context, e.Depth)
}

// Is 支持 errors.Is(err, ErrLockOrderViolation)
func (e *LockOrderError) Is(target error) bool {
	return target == ErrLockOrderViolation
}

// MixedLevelError 同组锁级别不一致
type MixedLevelError struct {
	Op      Op
	Context string
	Locks   []string
	Levels  []Level
}

func (e *MixedLevelError) Error() string {
	parts := make([]string, len(e.Locks))
	for i := range e.Locks {
		parts[i] = fmt.Sprintf("%s=%s", e.Locks[i], e.Levels[i])
	}
	return fmt.Sprintf("mixed lock levels in group: %s [%s] from %s", e.Op, strings.Join(parts, ", "), e.Context)
}

// Is 支持 errors.Is(err, ErrMixedLevel)
func (e *MixedLevelError) Is(target error) bool {
	return target == ErrMixedLevel
}

// PartialAcquireError 组获取中途失败
//
// 已获取的锁已按逆序释放，级别栈未改变。
type PartialAcquireError struct {
	Context    string
	RolledBack []string // 已回滚的锁（按释放顺序）
	Waiting    string   // 等待中失败的锁
	Err        error
}

func (e *PartialAcquireError) Error() string {
	return fmt.Sprintf("lock group acquisition aborted at %q from %s (rolled back %d): %v",
		e.Waiting, e.Context, len(e.RolledBack), e.Err)
}

func (e *PartialAcquireError) Unwrap() error {
	return e.Err
}

func lockNames(locks []*Lock) string {
	names := make([]string, len(locks))
	for i, l := range locks {
		names[i] = l.name
	}
	return strings.Join(names, ",")
}
