package config

import (
	"errors"
	"net"
	"time"
)

// RendezvousConfig 会合控制通道配置
type RendezvousConfig struct {
	// Addr 会合服务器控制端口 host:port
	Addr string `json:"addr"`

	// DialTimeout 建连超时
	DialTimeout Duration `json:"dial_timeout"`

	// ExchangeTimeout 整个两段式交换的超时
	ExchangeTimeout Duration `json:"exchange_timeout"`

	// MaxPayload 单个应答载荷的最大字节数
	MaxPayload int `json:"max_payload"`

	// ReuseAddr 是否设置 SO_REUSEADDR
	ReuseAddr bool `json:"reuse_addr"`
}

// DefaultRendezvousConfig 返回默认会合配置
func DefaultRendezvousConfig() RendezvousConfig {
	return RendezvousConfig{
		Addr:            "127.0.0.1:8001",
		DialTimeout:     Duration(10 * time.Second),
		ExchangeTimeout: Duration(30 * time.Second),
		MaxPayload:      2048,
		ReuseAddr:       true,
	}
}

// Validate 验证会合配置
func (c *RendezvousConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return errors.New("rendezvous: addr must be host:port")
	}
	if c.DialTimeout <= 0 || c.ExchangeTimeout <= 0 {
		return errors.New("rendezvous: timeouts must be positive")
	}
	if c.MaxPayload < 64 {
		return errors.New("rendezvous: max_payload must be at least 64 bytes")
	}
	return nil
}
