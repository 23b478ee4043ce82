package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
//
// 环境变量 STARLIGHT_LOG_LEVEL 的按子系统设置优先于这里的全局级别。
type LogConfig struct {
	// Level 全局日志级别（debug/info/warn/error），空表示沿用环境变量
	// 默认值: ""
	Level string `json:"level,omitempty"`
}

// DefaultLogConfig 返回默认的日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{}
}

// Validate 验证日志配置
func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("log: unknown level %q", c.Level)
	}
}
