package config

import "errors"

// CoordinatorConfig 协调器配置
type CoordinatorConfig struct {
	// HistorySize 保留的已完成请求数
	HistorySize int `json:"history_size"`
}

// DefaultCoordinatorConfig 返回默认协调器配置
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{HistorySize: 64}
}

// Validate 验证协调器配置
func (c *CoordinatorConfig) Validate() error {
	if c.HistorySize < 0 {
		return errors.New("coordinator: history_size cannot be negative")
	}
	return nil
}
