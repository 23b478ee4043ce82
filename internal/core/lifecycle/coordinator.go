// Package lifecycle 提供引擎生命周期协调器
//
// 阶段只能向前推进：
//
//	created → starting → running → stopping → stopped
//
// 其他模块通过 WaitFor 等待某个阶段，或通过 OnPhaseChange 订阅阶段变更。
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/stbowers/Starlight-sub001/internal/util/logger"
)

var log = logger.Logger("core/lifecycle")

// ============================================================================
//                              阶段定义
// ============================================================================

// Phase 生命周期阶段
type Phase int

const (
	// PhaseCreated 引擎已创建，未启动
	PhaseCreated Phase = iota

	// PhaseStarting 各模块正在启动
	PhaseStarting

	// PhaseRunning 稳态运行，可以分发事件
	PhaseRunning

	// PhaseStopping 正在关闭，分发器排空在途分发
	PhaseStopping

	// PhaseStopped 关闭完成
	PhaseStopped
)

// String 返回阶段字符串表示
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ============================================================================
//                              生命周期协调器
// ============================================================================

// Coordinator 生命周期协调器
//
// 追踪当前阶段，提供阶段 gate 并通知阶段变更。
type Coordinator struct {
	mu sync.RWMutex

	phase Phase

	// 阶段完成信号，关闭表示已到达该阶段
	phaseSignals map[Phase]chan struct{}

	onPhaseChange []func(old, new Phase)

	// 待通知的阶段变更，按推进顺序由单个 drainer 串行执行
	pending  []phaseNotice
	draining bool

	ctx    context.Context
	cancel context.CancelFunc
}

// phaseNotice 一次阶段推进的通知
type phaseNotice struct {
	old, new  Phase
	callbacks []func(old, new Phase)
}

// NewCoordinator 创建生命周期协调器
func NewCoordinator() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		phase:        PhaseCreated,
		phaseSignals: make(map[Phase]chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	for p := PhaseCreated; p <= PhaseStopped; p++ {
		c.phaseSignals[p] = make(chan struct{})
	}
	close(c.phaseSignals[PhaseCreated])
	return c
}

// ============================================================================
//                              阶段管理
// ============================================================================

// Phase 返回当前阶段
func (c *Coordinator) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// AdvanceTo 推进到指定阶段
//
// 只能向前推进；跳过的中间阶段信号一并完成。
// 阶段变更回调在后台 goroutine 中按注册顺序调用，
// 多次推进的通知按推进顺序串行投递。
func (c *Coordinator) AdvanceTo(target Phase) error {
	if _, ok := c.phaseSignals[target]; !ok {
		return fmt.Errorf("invalid phase: %d", target)
	}

	c.mu.Lock()
	if target < c.phase {
		cur := c.phase
		c.mu.Unlock()
		return fmt.Errorf("cannot advance backwards: current=%s target=%s", cur, target)
	}
	if target == c.phase {
		c.mu.Unlock()
		return nil
	}

	old := c.phase
	for p := old + 1; p <= target; p++ {
		close(c.phaseSignals[p])
	}
	c.phase = target
	startDrain := false
	if len(c.onPhaseChange) > 0 {
		c.pending = append(c.pending, phaseNotice{
			old:       old,
			new:       target,
			callbacks: append([]func(old, new Phase){}, c.onPhaseChange...),
		})
		if !c.draining {
			c.draining = true
			startDrain = true
		}
	}
	c.mu.Unlock()

	log.Info("生命周期阶段推进", "from", old.String(), "to", target.String())

	if startDrain {
		go c.drainNotices()
	}
	return nil
}

// drainNotices 依次投递待通知的阶段变更，队列为空时退出
func (c *Coordinator) drainNotices() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		n := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()

		for _, cb := range n.callbacks {
			cb(n.old, n.new)
		}
	}
}

// WaitFor 等待到达指定阶段
//
// 协调器停止后返回 context.Canceled。
func (c *Coordinator) WaitFor(ctx context.Context, phase Phase) error {
	ch, ok := c.phaseSignals[phase]
	if !ok {
		return fmt.Errorf("invalid phase: %d", phase)
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		// 停止与到达可能同时发生
		select {
		case <-ch:
			return nil
		default:
			return c.ctx.Err()
		}
	}
}

// IsCompleted 是否已到达指定阶段，不加锁
func (c *Coordinator) IsCompleted(phase Phase) bool {
	ch, ok := c.phaseSignals[phase]
	if !ok {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// ============================================================================
//                              回调管理
// ============================================================================

// OnPhaseChange 注册阶段变更回调
func (c *Coordinator) OnPhaseChange(callback func(old, new Phase)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPhaseChange = append(c.onPhaseChange, callback)
}

// ============================================================================
//                              生命周期控制
// ============================================================================

// Stop 停止协调器，唤醒所有等待者
func (c *Coordinator) Stop() {
	c.cancel()
}
