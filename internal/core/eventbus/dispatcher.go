package eventbus

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

// Stats 分发器统计
type Stats struct {
	Scheduled        uint64 // 已创建的分发
	Completed        uint64 // 全部回调成功
	Failed           uint64 // 至少一个回调失败
	CallbackFailures uint64 // 失败的回调总数
	Cancelled        uint64 // 开始前被 Cancel 取消
	Empty            uint64 // 没有目标的通知
	InFlight         int64  // 已创建未结束
}

type dispatchStats struct {
	scheduled        atomic.Uint64
	completed        atomic.Uint64
	failed           atomic.Uint64
	callbackFailures atomic.Uint64
	cancelled        atomic.Uint64
	empty            atomic.Uint64
	inflight         atomic.Int64
}

// ============================================================================
//                              Dispatcher
// ============================================================================

// Dispatcher 异步事件分发器
//
// Notify 拍下目标快照后立即返回，回调在独立 goroutine 中按快照顺序执行。
// 同一分发内的顺序固定，不同分发之间没有顺序保证。
type Dispatcher struct {
	registry *Registry
	clock    clock.Clock
	sem      *semaphore.Weighted
	failures *lru.Cache[uuid.UUID, *DispatchError]
	metrics  *dispatchMetrics
	stats    dispatchStats

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher 创建分发器
func NewDispatcher(registry *Registry, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("eventbus: nil registry")
	}

	o := options{cfg: DefaultConfig(), clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("eventbus: max concurrent must be >= 1, got %d", o.cfg.MaxConcurrent)
	}
	if o.cfg.FailureHistory < 1 {
		return nil, fmt.Errorf("eventbus: failure history must be >= 1, got %d", o.cfg.FailureHistory)
	}

	failures, err := lru.New[uuid.UUID, *DispatchError](o.cfg.FailureHistory)
	if err != nil {
		return nil, fmt.Errorf("eventbus: failure history: %w", err)
	}
	m, err := newDispatchMetrics(o.registerer, o.cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("eventbus: register metrics: %w", err)
	}

	return &Dispatcher{
		registry: registry,
		clock:    o.clock,
		sem:      semaphore.NewWeighted(int64(o.cfg.MaxConcurrent)),
		failures: failures,
		metrics:  m,
	}, nil
}

// Registry 返回分发器使用的注册表
func (p *Dispatcher) Registry() *Registry {
	return p.registry
}

// Notify 立即分发事件
//
// 没有任何目标时返回 (nil, nil)，不创建 goroutine。
func (p *Dispatcher) Notify(ctx context.Context, id types.EventID, sender, payload any) (*Dispatch, error) {
	return p.NotifyAfter(ctx, 0, id, sender, payload)
}

// NotifyAfter 在 delay 之后分发事件
//
// 目标快照在调用时刻拍下，延迟只影响回调的执行时间。负延迟按 0 处理。
func (p *Dispatcher) NotifyAfter(ctx context.Context, delay time.Duration, id types.EventID, sender, payload any) (*Dispatch, error) {
	if id == "" {
		return nil, ErrEmptyEventID
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if delay < 0 {
		delay = 0
	}
	if p.isClosed() {
		return nil, ErrClosed
	}

	targets, err := p.registry.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		p.stats.empty.Add(1)
		p.metrics.emptyNotify()
		return nil, nil
	}

	now := p.clock.Now()
	d := newDispatch(&Request{
		ID:        uuid.New(),
		Event:     id,
		Sender:    sender,
		Payload:   payload,
		Delay:     delay,
		Submitted: now,
		NotBefore: now.Add(delay),
		Targets:   targets,
	}, ctx)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		d.cancel()
		return nil, ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	p.stats.scheduled.Add(1)
	p.stats.inflight.Add(1)
	p.metrics.scheduled()

	go p.run(d)
	return d, nil
}

// run 执行一次分发
func (p *Dispatcher) run(d *Dispatch) {
	defer p.wg.Done()

	if err := p.wait(d); err != nil {
		p.abort(d, err)
		return
	}
	if err := p.sem.Acquire(d.ctx, 1); err != nil {
		p.abort(d, ErrCancelled)
		return
	}
	defer p.sem.Release(1)

	if !d.start() {
		p.abort(d, ErrCancelled)
		return
	}

	if err := p.invokeAll(d); err != nil {
		p.fail(d, err)
		return
	}
	p.stats.completed.Add(1)
	p.done(d, StateCompleted, nil, resultCompleted)
}

// wait 等待 NotBefore 到期
//
// 已接受的分发只会被 Dispatch.Cancel 中止，关闭分发器不影响等待。
func (p *Dispatcher) wait(d *Dispatch) error {
	for {
		remaining := d.req.NotBefore.Sub(p.clock.Now())
		if remaining <= 0 {
			return nil
		}
		if err := p.sleep(d, remaining); err != nil {
			return err
		}
	}
}

func (p *Dispatcher) sleep(d *Dispatch, dur time.Duration) error {
	timer := p.clock.Timer(dur)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-d.ctx.Done():
		return ErrCancelled
	}
}

// abort 结束一个未开始执行的分发
func (p *Dispatcher) abort(d *Dispatch, reason error) {
	if !d.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		// 已被 Cancel
		reason = ErrCancelled
	}
	p.stats.cancelled.Add(1)
	log.Debug("分发已取消", "dispatch", d.req.ID, "event", d.req.Event, "reason", reason)
	p.done(d, StateCancelled, reason, resultCancelled)
}

func (p *Dispatcher) fail(d *Dispatch, err *DispatchError) {
	p.stats.failed.Add(1)
	p.stats.callbackFailures.Add(uint64(len(err.Failures)))
	p.failures.Add(d.req.ID, err)
	log.Error("事件回调失败",
		"dispatch", d.req.ID,
		"event", d.req.Event,
		"failed", len(err.Failures),
		"total", err.Total,
		"err", err)
	p.done(d, StateFailed, err, resultFailed)
}

func (p *Dispatcher) done(d *Dispatch, state State, err error, result string) {
	p.stats.inflight.Add(-1)
	p.metrics.finished(result)
	d.finish(state, err)
}

// invokeAll 按快照顺序调用全部回调，单个失败不影响其余
func (p *Dispatcher) invokeAll(d *Dispatch) *DispatchError {
	var failures []*CallbackError
	for i, target := range d.req.Targets {
		cbErr := p.invoke(d, i, target)
		p.metrics.callback(cbErr != nil)
		if cbErr != nil {
			failures = append(failures, cbErr)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return newDispatchError(d.req, failures)
}

// invoke 调用单个回调
//
// 每个回调获得全新的 lockorder.Context，回调返回时仍持有锁视为失败。
func (p *Dispatcher) invoke(d *Dispatch, index int, target Target) (cbErr *CallbackError) {
	ac := lockorder.NewContext(fmt.Sprintf("dispatch/%s", target.Event))
	ctx := lockorder.WithContext(d.cbCtx, ac)

	newErr := func(err error) *CallbackError {
		return &CallbackError{
			DispatchID:     d.req.ID,
			Event:          d.req.Event,
			Index:          index,
			Scope:          target.Scope,
			SubscriptionID: target.SubscriptionID,
			Err:            err,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			cbErr = newErr(fmt.Errorf("%w: %v", ErrCallbackPanic, r))
			cbErr.Stack = debug.Stack()
		}
		if ac.Holding() {
			log.Error("回调返回时仍持有锁", "event", d.req.Event, "held", ac.Held())
			if cbErr == nil {
				cbErr = newErr(ErrLockLeaked)
			} else {
				cbErr.Err = multierr.Append(cbErr.Err, ErrLockLeaked)
			}
		}
	}()

	if err := target.Callback(ctx, d.req.Sender, d.req.Payload); err != nil {
		return newErr(err)
	}
	return nil
}

// Stats 返回统计快照
func (p *Dispatcher) Stats() Stats {
	return Stats{
		Scheduled:        p.stats.scheduled.Load(),
		Completed:        p.stats.completed.Load(),
		Failed:           p.stats.failed.Load(),
		CallbackFailures: p.stats.callbackFailures.Load(),
		Cancelled:        p.stats.cancelled.Load(),
		Empty:            p.stats.empty.Load(),
		InFlight:         p.stats.inflight.Load(),
	}
}

// RecentFailures 返回最近的失败分发，最新的在前
func (p *Dispatcher) RecentFailures() []*DispatchError {
	keys := p.failures.Keys()
	out := make([]*DispatchError, 0, len(keys))
	for _, k := range keys {
		if v, ok := p.failures.Peek(k); ok {
			out = append(out, v)
		}
	}
	slices.Reverse(out)
	return out
}

func (p *Dispatcher) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close 停止接受新分发并等待在途分发结束
//
// 已接受的分发（包括仍在等待延迟的）都会执行完毕。
// ctx 到期时返回其错误，剩余分发继续在后台完成。重复调用返回 nil。
func (p *Dispatcher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Debug("分发器已关闭", "stats", p.Stats())
		return nil
	case <-ctx.Done():
		log.Warn("分发器关闭超时", "inflight", p.stats.inflight.Load())
		return fmt.Errorf("eventbus: close: %w", ctx.Err())
	}
}
