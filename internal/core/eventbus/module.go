package eventbus

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/config"
	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Params 模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config         `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Registry    *Registry
	Dispatcher  *Dispatcher
	ScopeSetter interfaces.ScopeSetter
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(Provide),
		fx.Invoke(registerLifecycle),
	)
}

// Provide 创建注册表与分发器
func Provide(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	opts := []Option{WithConfig(cfg), WithClock(p.Clock)}
	if p.UnifiedCfg == nil || p.UnifiedCfg.Metrics.Enabled {
		opts = append(opts, WithRegisterer(p.Registerer))
	}

	registry := NewRegistry()
	dispatcher, err := NewDispatcher(registry, opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Registry:    registry,
		Dispatcher:  dispatcher,
		ScopeSetter: registry,
	}, nil
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC         fx.Lifecycle
	Dispatcher *Dispatcher
}

// registerLifecycle 注册生命周期
//
// 停止时关闭分发器，等待在途分发的时间受 fx 停止超时约束。
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return input.Dispatcher.Close(ctx)
		},
	})
}

// ============================================================================
// 模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "eventbus"
	// Description 模块描述
	Description = "订阅注册表与异步事件分发模块"
)
