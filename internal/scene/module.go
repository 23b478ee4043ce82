package scene

import (
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/pkg/interfaces"
)

// Params 模块依赖参数
type Params struct {
	fx.In

	Scope interfaces.ScopeSetter
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("scene",
		fx.Provide(func(p Params) *Manager {
			return NewManager(p.Scope)
		}),
	)
}
