// Package config 提供 Starlight 引擎的统一配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 支持从 JSON 加载和保存。
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Dispatch.MaxConcurrent = 4
//	cfg.Lock.PanicOnViolation = true
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config 是 Starlight 引擎核心的完整配置结构
//
// 配置按照功能模块组织：
//   - Lock: 分级锁违规处理
//   - Dispatch: 事件分发器（工作池、失败历史）
//   - Metrics: Prometheus 指标
//   - Log: 日志级别
type Config struct {
	// Lock 分级锁配置
	Lock LockConfig `json:"lock"`

	// Dispatch 事件分发配置
	Dispatch DispatchConfig `json:"dispatch"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Lock:     DefaultLockConfig(),
		Dispatch: DefaultDispatchConfig(),
		Metrics:  DefaultMetricsConfig(),
		Log:      DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Lock.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
