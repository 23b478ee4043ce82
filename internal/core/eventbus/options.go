package eventbus

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stbowers/Starlight-sub001/config"
)

// Config 分发器配置
type Config struct {
	// MaxConcurrent 同时执行回调的分发任务上限
	MaxConcurrent int

	// FailureHistory 保留的最近失败记录条数
	FailureHistory int

	// Namespace 指标命名空间
	Namespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	d := config.DefaultDispatchConfig()
	return Config{
		MaxConcurrent:  d.MaxConcurrent,
		FailureHistory: d.FailureHistory,
		Namespace:      config.DefaultMetricsConfig().Namespace,
	}
}

// ConfigFromUnified 从统一配置创建分发器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		MaxConcurrent:  cfg.Dispatch.MaxConcurrent,
		FailureHistory: cfg.Dispatch.FailureHistory,
		Namespace:      cfg.Metrics.Namespace,
	}
}

type options struct {
	cfg        Config
	clock      clock.Clock
	registerer prometheus.Registerer
}

// Option 分发器选项
type Option func(*options)

// WithConfig 使用指定配置
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithMaxConcurrent 设置工作池大小
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		o.cfg.MaxConcurrent = n
	}
}

// WithFailureHistory 设置失败记录条数
func WithFailureHistory(n int) Option {
	return func(o *options) {
		o.cfg.FailureHistory = n
	}
}

// WithClock 注入时钟（测试使用 clock.NewMock()）
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRegisterer 注册 Prometheus 指标，nil 表示不采集
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}
