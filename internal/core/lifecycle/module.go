package lifecycle

import (
	"context"

	"go.uber.org/fx"
)

// Module 返回 Fx 模块
//
// 提供生命周期协调器作为全局单例。应当排在其他模块之前，
// 这样它的启动钩子最先执行、停止钩子最后执行。
func Module() fx.Option {
	return fx.Module("lifecycle",
		fx.Provide(NewCoordinator),
		fx.Invoke(registerLifecycleHooks),
	)
}

// lifecycleHooksParams 生命周期钩子参数
type lifecycleHooksParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Coordinator *Coordinator
}

// registerLifecycleHooks 注册生命周期钩子
//
// running 与 stopping 由引擎在全部模块启动后、开始停止前推进。
func registerLifecycleHooks(params lifecycleHooksParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return params.Coordinator.AdvanceTo(PhaseStarting)
		},
		OnStop: func(_ context.Context) error {
			err := params.Coordinator.AdvanceTo(PhaseStopped)
			params.Coordinator.Stop()
			return err
		},
	})
}
