package starlight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/config"
	"github.com/stbowers/Starlight-sub001/internal/core/eventbus"
	"github.com/stbowers/Starlight-sub001/internal/core/lifecycle"
	"github.com/stbowers/Starlight-sub001/internal/core/lockorder"
	"github.com/stbowers/Starlight-sub001/internal/core/metrics"
	"github.com/stbowers/Starlight-sub001/internal/input"
	"github.com/stbowers/Starlight-sub001/internal/scene"
	log "github.com/stbowers/Starlight-sub001/internal/util/logger"
	"github.com/stbowers/Starlight-sub001/pkg/types"
)

var logger = log.Logger("starlight")

// Engine 引擎核心
//
// 通过 New 创建，Start 启动，Stop 停止。Stop 之后引擎不可再次启动。
type Engine struct {
	cfg *config.Config
	app *fx.App

	// 由 Fx 注入
	coordinator *lifecycle.Coordinator
	registry    *eventbus.Registry
	dispatcher  *eventbus.Dispatcher
	scenes      *scene.Manager
	input       *input.Forwarder
	gatherer    prometheus.Gatherer
	snapshots   *metrics.SnapshotCollector

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建引擎
//
// 选项按顺序应用；最终配置校验失败时返回错误。
// 锁顺序的严格模式和日志级别是进程级设置，会在这里生效。
func New(opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.toConfig()
	if err != nil {
		return nil, err
	}
	applyGlobals(cfg)

	e := &Engine{cfg: cfg}
	app := buildFxApp(cfg, o, e)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	e.app = app

	e.coordinator.OnPhaseChange(e.publishPhase)

	logger.Debug("引擎已创建",
		"maxConcurrent", cfg.Dispatch.MaxConcurrent,
		"metrics", cfg.Metrics.Enabled)
	return e, nil
}

// applyGlobals 应用进程级设置
func applyGlobals(cfg *config.Config) {
	lockorder.SetStrict(cfg.Lock.PanicOnViolation)
	if cfg.Log.Level == "" {
		return
	}
	if level, ok := log.ParseLevel(cfg.Log.Level); ok {
		log.SetGlobalLevel(level)
	}
}

// publishPhase 把阶段变化作为 engine.phase 事件发布
//
// 进入 stopped 时分发器已关闭，通知会被拒绝，只记录调试日志。
func (e *Engine) publishPhase(old, new lifecycle.Phase) {
	change := types.PhaseChange{From: old.String(), To: new.String()}
	if _, err := e.dispatcher.Notify(context.Background(), types.EventEnginePhase, e, change); err != nil {
		if errors.Is(err, eventbus.ErrClosed) {
			logger.Debug("阶段事件未发布，分发器已关闭", "phase", change.To)
			return
		}
		logger.Warn("阶段事件发布失败", "phase", change.To, "error", err)
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              事件
// ════════════════════════════════════════════════════════════════════════════

// Subscribe 在全局作用域订阅事件
func (e *Engine) Subscribe(ctx context.Context, id types.EventID, cb types.Callback) (*eventbus.Subscription, error) {
	return e.registry.Subscribe(ctx, id, cb)
}

// Notify 立即发布事件
//
// 没有订阅者时返回 (nil, nil)。
func (e *Engine) Notify(ctx context.Context, id types.EventID, sender, payload any) (*eventbus.Dispatch, error) {
	return e.dispatcher.Notify(ctx, id, sender, payload)
}

// NotifyAfter 延迟 delay 后发布事件
func (e *Engine) NotifyAfter(ctx context.Context, delay time.Duration, id types.EventID, sender, payload any) (*eventbus.Dispatch, error) {
	return e.dispatcher.NotifyAfter(ctx, delay, id, sender, payload)
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Config 返回引擎使用的配置副本
func (e *Engine) Config() *config.Config {
	return config.CloneConfig(e.cfg)
}

// Registry 返回订阅注册表
func (e *Engine) Registry() *eventbus.Registry { return e.registry }

// Dispatcher 返回事件分发器
func (e *Engine) Dispatcher() *eventbus.Dispatcher { return e.dispatcher }

// Scenes 返回场景管理器
func (e *Engine) Scenes() *scene.Manager { return e.scenes }

// Input 返回输入转发器，窗口系统的回调应调用它
func (e *Engine) Input() *input.Forwarder { return e.input }

// Gatherer 返回指标收集器，可挂到 promhttp.HandlerFor 上
func (e *Engine) Gatherer() prometheus.Gatherer { return e.gatherer }

// Snapshot 采集一次指标快照
func (e *Engine) Snapshot() (*metrics.Snapshot, error) {
	return e.snapshots.Collect()
}
