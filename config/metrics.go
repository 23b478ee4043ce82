package config

import (
	"fmt"
	"regexp"
)

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 Prometheus 指标
	// 默认值: true
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间前缀
	// 默认值: "starlight"
	Namespace string `json:"namespace"`

	// RuntimeCollectors 是否注册 Go 运行时与进程指标
	// 默认值: true
	RuntimeCollectors bool `json:"runtime_collectors"`

	// SnapshotInterval 周期性输出指标快照日志的间隔，0 表示关闭
	// 默认值: 0
	SnapshotInterval Duration `json:"snapshot_interval"`
}

// DefaultMetricsConfig 返回默认的指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:           true,
		Namespace:         "starlight",
		RuntimeCollectors: true,
	}
}

// Validate 验证指标配置
func (c *MetricsConfig) Validate() error {
	if c.Namespace != "" && !metricNamePattern.MatchString(c.Namespace) {
		return fmt.Errorf("metrics: invalid namespace %q", c.Namespace)
	}
	if c.SnapshotInterval < 0 {
		return fmt.Errorf("metrics: snapshot_interval must not be negative")
	}
	return nil
}
