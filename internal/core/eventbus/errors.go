package eventbus

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// ============================================================================
//                              哨兵错误
// ============================================================================

var (
	// ErrClosed 分发器已关闭
	ErrClosed = errors.New("eventbus: dispatcher closed")

	// ErrNilCallback 回调为 nil
	ErrNilCallback = errors.New("eventbus: nil callback")

	// ErrEmptyEventID 事件标识为空
	ErrEmptyEventID = errors.New("eventbus: empty event id")

	// ErrCancelled 分发在开始执行前被取消
	ErrCancelled = errors.New("eventbus: dispatch cancelled")

	// ErrCallbackFailed 回调返回错误或 panic
	ErrCallbackFailed = errors.New("eventbus: callback failed")

	// ErrCallbackPanic 回调 panic
	ErrCallbackPanic = errors.New("eventbus: callback panicked")

	// ErrLockLeaked 回调返回时仍持有引擎锁
	ErrLockLeaked = errors.New("eventbus: callback returned while holding locks")
)

// ============================================================================
//                              CallbackError
// ============================================================================

// CallbackError 单个回调的失败记录
type CallbackError struct {
	DispatchID     uuid.UUID
	Event          types.EventID
	Index          int // 在快照中的位置
	Scope          Scope
	SubscriptionID uint64
	Err            error
	Stack          []byte // 仅 panic 时记录
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("eventbus: callback #%d (%s) for %q failed: %v", e.Index, e.Scope, e.Event, e.Err)
}

// Unwrap 返回底层错误
func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrCallbackFailed) 成立
func (e *CallbackError) Is(target error) bool {
	return target == ErrCallbackFailed
}

// ============================================================================
//                              DispatchError
// ============================================================================

// DispatchError 一次分发中所有回调失败的汇总
//
// 单个回调失败不会中断同批其他回调，这里汇总全部失败。
type DispatchError struct {
	DispatchID uuid.UUID
	Event      types.EventID
	Total      int // 本次分发的回调总数
	Failures   []*CallbackError

	err error // multierr 聚合
}

func newDispatchError(req *Request, failures []*CallbackError) *DispatchError {
	var combined error
	for _, f := range failures {
		combined = multierr.Append(combined, f)
	}
	return &DispatchError{
		DispatchID: req.ID,
		Event:      req.Event,
		Total:      len(req.Targets),
		Failures:   failures,
		err:        combined,
	}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("eventbus: dispatch %s of %q: %d of %d callbacks failed: %v",
		e.DispatchID, e.Event, len(e.Failures), e.Total, e.err)
}

// Unwrap 返回所有回调错误
func (e *DispatchError) Unwrap() []error {
	return multierr.Errors(e.err)
}
