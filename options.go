package starlight

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/stbowers/Starlight-sub001/config"
	"github.com/stbowers/Starlight-sub001/internal/input"
)

// Option 引擎配置选项
type Option func(*options) error

// options 构建引擎时收集的选项
//
// cfg 为空时使用 config.NewConfig() 的默认值，之后的选项在其上覆盖。
type options struct {
	cfg *config.Config

	// 覆盖项，按调用顺序应用到 cfg 上
	overrides []func(*config.Config)

	clock  clock.Clock
	window input.Window

	// userFxOptions 用户追加的 Fx 选项
	userFxOptions []fx.Option
}

// toConfig 合并基础配置与覆盖项，并校验结果
func (o *options) toConfig() (*config.Config, error) {
	var cfg *config.Config
	if o.cfg != nil {
		cfg = config.CloneConfig(o.cfg)
	} else {
		cfg = config.NewConfig()
	}
	for _, apply := range o.overrides {
		apply(cfg)
	}
	if err := config.ValidateAll(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (o *options) override(fn func(*config.Config)) {
	o.overrides = append(o.overrides, fn)
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置来源
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置作为基础
//
// 配置会被复制，调用方之后的修改不影响引擎。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.cfg = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载基础配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              单项覆盖
// ════════════════════════════════════════════════════════════════════════════

// WithMaxConcurrent 设置同时执行回调的分发任务上限
func WithMaxConcurrent(n int) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Dispatch.MaxConcurrent = n })
		return nil
	}
}

// WithFailureHistory 设置保留的失败分发记录条数
func WithFailureHistory(n int) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Dispatch.FailureHistory = n })
		return nil
	}
}

// WithDrainTimeout 设置停止时等待在途分发的最长时间
func WithDrainTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Dispatch.DrainTimeout = config.Duration(d) })
		return nil
	}
}

// WithPanicOnViolation 违反加锁顺序时直接 panic
//
// 这是进程级开关，影响所有获取上下文。
func WithPanicOnViolation(on bool) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Lock.PanicOnViolation = on })
		return nil
	}
}

// WithMetrics 启用或关闭 Prometheus 指标
func WithMetrics(enabled bool) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Metrics.Enabled = enabled })
		return nil
	}
}

// WithMetricsNamespace 设置指标命名空间
func WithMetricsNamespace(ns string) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Metrics.Namespace = ns })
		return nil
	}
}

// WithSnapshotInterval 设置指标快照日志的间隔，0 表示关闭
func WithSnapshotInterval(d time.Duration) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Metrics.SnapshotInterval = config.Duration(d) })
		return nil
	}
}

// WithLogLevel 设置全局日志级别
func WithLogLevel(level string) Option {
	return func(o *options) error {
		o.override(func(c *config.Config) { c.Log.Level = level })
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件注入
// ════════════════════════════════════════════════════════════════════════════

// WithClock 注入时钟，测试中传入 clock.NewMock()
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		if clk == nil {
			return errors.New("clock is nil")
		}
		o.clock = clk
		return nil
	}
}

// WithWindow 设置输入事件的发送者（窗口句柄）
func WithWindow(w any) Option {
	return func(o *options) error {
		o.window = w
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
//
// 可用于注入额外模块或通过 fx.Invoke 访问内部组件。
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
