package starlight

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/stbowers/Starlight-sub001/config"

	// Core Layer
	"github.com/stbowers/Starlight-sub001/internal/core/eventbus"
	"github.com/stbowers/Starlight-sub001/internal/core/lifecycle" // 生命周期协调器
	"github.com/stbowers/Starlight-sub001/internal/core/metrics"

	// Engine Layer
	"github.com/stbowers/Starlight-sub001/internal/input"
	"github.com/stbowers/Starlight-sub001/internal/scene"
)

// buildFxApp 构建 Fx 应用
//
// 模块顺序决定钩子顺序：lifecycle 最先启动、最后停止。
func buildFxApp(cfg *config.Config, o *options, e *Engine) *fx.App {
	fxOpts := []fx.Option{
		// 统一配置
		fx.Supply(cfg),

		// ════════════════════════════════════════════════════════════════════
		// Core Layer
		// ════════════════════════════════════════════════════════════════════
		lifecycle.Module(),
		metrics.Module,
		eventbus.Module(),

		// ════════════════════════════════════════════════════════════════════
		// Engine Layer
		// ════════════════════════════════════════════════════════════════════
		scene.Module(),
		input.Module(),
	}

	if o.clock != nil {
		clk := o.clock
		fxOpts = append(fxOpts, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.window != nil {
		w := o.window
		fxOpts = append(fxOpts, fx.Provide(func() input.Window { return w }))
	}

	// 用户自定义 Fx 选项
	fxOpts = append(fxOpts, o.userFxOptions...)

	fxOpts = append(fxOpts,
		fx.Populate(
			&e.coordinator,
			&e.registry,
			&e.dispatcher,
			&e.scenes,
			&e.input,
			&e.gatherer,
			&e.snapshots,
		),
		// 框架日志静默，组件日志走各自子系统
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(fxOpts...)
}
