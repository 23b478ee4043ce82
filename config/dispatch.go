package config

import (
	"fmt"
	"time"
)

// DispatchConfig 事件分发配置
type DispatchConfig struct {
	// MaxConcurrent 同时执行回调的分发任务上限（工作池大小）
	// 延迟等待中的任务不占用名额
	// 默认值: 8
	MaxConcurrent int `json:"max_concurrent"`

	// FailureHistory 保留最近失败分发记录的条数
	// 默认值: 64
	FailureHistory int `json:"failure_history"`

	// DrainTimeout 关闭时等待在途分发完成的最长时间
	// 默认值: 5s
	DrainTimeout Duration `json:"drain_timeout"`
}

// DefaultDispatchConfig 返回默认的分发配置
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		MaxConcurrent:  8,
		FailureHistory: 64,
		DrainTimeout:   Duration(5 * time.Second),
	}
}

// Validate 验证分发配置
func (c *DispatchConfig) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("dispatch: max_concurrent must be >= 1, got %d", c.MaxConcurrent)
	}
	if c.FailureHistory < 1 {
		return fmt.Errorf("dispatch: failure_history must be >= 1, got %d", c.FailureHistory)
	}
	if c.DrainTimeout < 0 {
		return fmt.Errorf("dispatch: drain_timeout must not be negative")
	}
	return nil
}
