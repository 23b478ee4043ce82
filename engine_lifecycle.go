package starlight

import (
	"context"
	"fmt"
	"time"

	"github.com/stbowers/Starlight-sub001/internal/core/lifecycle"
)

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

// initializeTimeout 初始化超时（Fx App Start）
const initializeTimeout = 30 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期管理
// ════════════════════════════════════════════════════════════════════════════

// Start 启动引擎
//
// 先启动 Fx 应用（lifecycle 模块推进到 starting），
// 全部模块启动成功后推进到 running。
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}

	logger.Info("正在启动引擎")

	initCtx, initCancel := context.WithTimeout(ctx, initializeTimeout)
	defer initCancel()

	if err := e.app.Start(initCtx); err != nil {
		logger.Error("引擎启动失败", "error", err)
		// 部分模块可能已启动，回滚并视为关闭
		_ = e.app.Stop(context.Background())
		e.closed = true
		return fmt.Errorf("initialize failed: %w", err)
	}

	if err := e.coordinator.AdvanceTo(lifecycle.PhaseRunning); err != nil {
		return err
	}
	e.started = true

	logger.Info("引擎已启动")
	return nil
}

// Stop 停止引擎
//
// 推进到 stopping 后停止 Fx 应用：分发器不再接受新事件，
// 已接受的分发（包括仍在等待延迟的）在 drain 超时内执行完毕。
// ctx 没有截止时间时使用配置的 DrainTimeout。
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if !e.started {
		return ErrNotStarted
	}

	logger.Info("正在停止引擎")

	if err := e.coordinator.AdvanceTo(lifecycle.PhaseStopping); err != nil {
		logger.Warn("推进到 stopping 失败", "error", err)
	}

	stopCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		if d := e.cfg.Dispatch.DrainTimeout.Std(); d > 0 {
			var cancel context.CancelFunc
			stopCtx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}

	err := e.app.Stop(stopCtx)
	e.started = false
	e.closed = true
	if err != nil {
		logger.Warn("引擎停止时出错", "error", err)
		return fmt.Errorf("stop: %w", err)
	}

	logger.Info("引擎已停止")
	return nil
}

// Phase 返回当前阶段
func (e *Engine) Phase() lifecycle.Phase {
	return e.coordinator.Phase()
}

// WaitFor 等待引擎到达指定阶段
func (e *Engine) WaitFor(ctx context.Context, phase lifecycle.Phase) error {
	return e.coordinator.WaitFor(ctx, phase)
}

// IsRunning 引擎是否处于 running 阶段
func (e *Engine) IsRunning() bool {
	return e.coordinator.IsCompleted(lifecycle.PhaseRunning) &&
		!e.coordinator.IsCompleted(lifecycle.PhaseStopping)
}
