package config

import (
	"errors"
	"time"
)

// 推送通道模式
const (
	// NotificationLoopback 进程内事件总线（测试与单机部署）
	NotificationLoopback = "loopback"
	// NotificationWebSocket 连接服务端推送中心
	NotificationWebSocket = "websocket"
)

// NotificationConfig 推送通道配置
type NotificationConfig struct {
	// Mode loopback 或 websocket
	Mode string `json:"mode"`

	// PushURL websocket 推送中心地址，例如 ws://host:8000/push
	PushURL string `json:"push_url,omitempty"`

	// Buffer 事件通道缓冲区大小
	Buffer int `json:"buffer"`

	// HandshakeTimeout websocket 握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`
}

// DefaultNotificationConfig 返回默认推送配置
func DefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		Mode:             NotificationLoopback,
		Buffer:           16,
		HandshakeTimeout: Duration(10 * time.Second),
	}
}

// Validate 验证推送配置
func (c *NotificationConfig) Validate() error {
	switch c.Mode {
	case NotificationLoopback:
	case NotificationWebSocket:
		if c.PushURL == "" {
			return errors.New("notification: push_url required in websocket mode")
		}
	default:
		return errors.New("notification: mode must be loopback or websocket")
	}
	if c.Buffer <= 0 {
		c.Buffer = 16
	}
	return nil
}
