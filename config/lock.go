package config

// LockConfig 分级锁配置
type LockConfig struct {
	// PanicOnViolation 顺序违规时是否直接 panic
	// 开发构建建议开启，让潜在死锁在测试中立即暴露
	// 默认值: false
	PanicOnViolation bool `json:"panic_on_violation"`
}

// DefaultLockConfig 返回默认的分级锁配置
func DefaultLockConfig() LockConfig {
	return LockConfig{
		PanicOnViolation: false,
	}
}

// Validate 验证分级锁配置
func (c *LockConfig) Validate() error {
	return nil
}
