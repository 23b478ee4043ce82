package metrics

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/config"
)

// Config 指标配置
type Config struct {
	// Enabled 是否注册默认收集器
	Enabled bool

	// Namespace 指标命名空间
	Namespace string

	// RuntimeCollectors 是否注册 Go 运行时与进程收集器
	RuntimeCollectors bool

	// SnapshotInterval 快照日志间隔，0 表示关闭
	SnapshotInterval time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return fromMetricsConfig(config.DefaultMetricsConfig())
}

// ConfigFromUnified 从统一配置创建指标配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return fromMetricsConfig(cfg.Metrics)
}

func fromMetricsConfig(c config.MetricsConfig) Config {
	return Config{
		Enabled:           c.Enabled,
		Namespace:         c.Namespace,
		RuntimeCollectors: c.RuntimeCollectors,
		SnapshotInterval:  c.SnapshotInterval.Std(),
	}
}

// Params Metrics 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
}

// Result Metrics 模块输出
type Result struct {
	fx.Out

	Registry   *prometheus.Registry
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Snapshots  *SnapshotCollector
}

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(Provide),
	fx.Invoke(registerLifecycle),
)

// Provide 创建指标注册表
//
// 未启用时仍提供空注册表，下游组件根据配置决定是否注册。
func Provide(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	reg := prometheus.NewRegistry()
	if cfg.Enabled {
		if err := registerDefaults(reg, cfg); err != nil {
			return Result{}, err
		}
	}
	return Result{
		Registry:   reg,
		Registerer: reg,
		Gatherer:   reg,
		Snapshots:  NewSnapshotCollector(reg, cfg.Namespace, p.Clock),
	}, nil
}

type lifecycleInput struct {
	fx.In

	LC         fx.Lifecycle
	UnifiedCfg *config.Config `optional:"true"`
	Snapshots  *SnapshotCollector
}

// registerLifecycle 按配置启动周期性快照
func registerLifecycle(input lifecycleInput) {
	cfg := ConfigFromUnified(input.UnifiedCfg)
	if !cfg.Enabled || cfg.SnapshotInterval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	input.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				input.Snapshots.Run(ctx, cfg.SnapshotInterval, nil)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
