package eventbus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// ============================================================================
//                              Request
// ============================================================================

// Request 分发请求
//
// 在 Notify 时刻构造，之后不再修改。Targets 是当时的目标快照。
type Request struct {
	ID        uuid.UUID
	Event     types.EventID
	Sender    any
	Payload   any
	Delay     time.Duration
	Submitted time.Time
	NotBefore time.Time
	Targets   []Target
}

// ============================================================================
//                              State
// ============================================================================

// State 分发状态
type State int32

const (
	// StatePending 等待延迟到期或工作槽位
	StatePending State = iota
	// StateRunning 正在调用回调
	StateRunning
	// StateCompleted 全部回调成功
	StateCompleted
	// StateFailed 至少一个回调失败
	StateFailed
	// StateCancelled 开始执行前被取消
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Done 是否为终态
func (s State) Done() bool {
	return s >= StateCompleted
}

// ============================================================================
//                              Dispatch
// ============================================================================

// Dispatch 在途分发句柄
//
// 默认用法是即发即弃，句柄只在需要等待或取消时使用。
type Dispatch struct {
	req   *Request
	state atomic.Int32
	done  chan struct{}
	err   error

	// ctx 仅用于 Cancel 打断延迟等待和槽位等待
	ctx    context.Context
	cancel context.CancelFunc

	// cbCtx 回调使用的 ctx，保留 Notify 调用方的值，不继承其取消
	cbCtx context.Context
}

func newDispatch(req *Request, callerCtx context.Context) *Dispatch {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatch{
		req:    req,
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		cbCtx:  context.WithoutCancel(callerCtx),
	}
}

// ID 返回分发 ID
func (d *Dispatch) ID() uuid.UUID { return d.req.ID }

// Event 返回事件标识
func (d *Dispatch) Event() types.EventID { return d.req.Event }

// Request 返回分发请求
func (d *Dispatch) Request() *Request { return d.req }

// State 返回当前状态
func (d *Dispatch) State() State { return State(d.state.Load()) }

// Done 返回分发结束时关闭的通道
func (d *Dispatch) Done() <-chan struct{} { return d.done }

// Err 返回分发结果，未结束时返回 nil
//
// 失败时为 *DispatchError，取消时为 ErrCancelled。
func (d *Dispatch) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait 等待分发结束并返回结果
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel 取消尚未开始执行的分发
//
// 返回 true 表示回调一定不会被调用；已开始或已结束时返回 false。
func (d *Dispatch) Cancel() bool {
	if !d.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		return false
	}
	d.cancel()
	return true
}

func (d *Dispatch) start() bool {
	return d.state.CompareAndSwap(int32(StatePending), int32(StateRunning))
}

// finish 记录结果并关闭 done，每个分发只调用一次
func (d *Dispatch) finish(state State, err error) {
	d.err = err
	d.state.Store(int32(state))
	d.cancel()
	close(d.done)
}
