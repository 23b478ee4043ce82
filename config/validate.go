package config

import "errors"

// ValidateAll 验证整个配置的有效性
//
// 与 Config.Validate 相同，额外处理 nil。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}

// MustValidate 验证配置，无效时 panic
//
// 仅用于启动阶段的静态配置。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(err)
	}
}
