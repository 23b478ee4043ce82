package input

import (
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/internal/core/eventbus"
)

// Window 事件发送者（窗口句柄），对事件核心不透明
type Window interface{}

// Params 模块依赖参数
type Params struct {
	fx.In

	Dispatcher *eventbus.Dispatcher

	Window Window `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("input",
		fx.Provide(func(p Params) *Forwarder {
			return NewForwarder(p.Dispatcher, p.Window)
		}),
	)
}
