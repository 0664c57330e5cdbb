package config

import (
	"errors"
	"time"
)

// ServerConfig 会合 / 目录 / 推送服务端配置
type ServerConfig struct {
	// APIListen 目录 REST 与推送中心监听地址
	APIListen string `json:"api_listen"`

	// ControlListen 会合控制通道监听地址
	ControlListen string `json:"control_listen"`

	// DataDir 目录数据库目录
	DataDir string `json:"data_dir"`

	// RequestRate 每秒允许的连接请求数
	RequestRate float64 `json:"request_rate"`

	// RequestBurst 突发请求数
	RequestBurst int `json:"request_burst"`

	// PendingTTL 未完成请求的保留时间
	PendingTTL Duration `json:"pending_ttl"`

	// MaxPayload 控制通道单条消息最大字节数
	MaxPayload int `json:"max_payload"`
}

// DefaultServerConfig 返回默认服务端配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		APIListen:     ":8000",
		ControlListen: ":8001",
		DataDir:       "./server-data",
		RequestRate:   10,
		RequestBurst:  20,
		PendingTTL:    Duration(2 * time.Minute),
		MaxPayload:    2048,
	}
}

// Validate 验证服务端配置
func (c *ServerConfig) Validate() error {
	if c.APIListen == "" || c.ControlListen == "" {
		return errors.New("server: listen addresses cannot be empty")
	}
	if c.RequestRate <= 0 || c.RequestBurst <= 0 {
		return errors.New("server: request_rate and request_burst must be positive")
	}
	if c.PendingTTL <= 0 {
		return errors.New("server: pending_ttl must be positive")
	}
	if c.MaxPayload < 64 {
		return errors.New("server: max_payload must be at least 64 bytes")
	}
	return nil
}
