package config

import (
	"errors"
	"time"
)

// NATConfig NAT 探测配置
//
// 仅用于显式的 nat-probe 命令，协调器从不自动探测。
type NATConfig struct {
	// STUNServers STUN 服务器列表 host:port
	STUNServers []string `json:"stun_servers,omitempty"`

	// ProbeTimeout 单个服务器的探测超时
	ProbeTimeout Duration `json:"probe_timeout"`
}

// DefaultNATConfig 返回默认 NAT 配置
func DefaultNATConfig() NATConfig {
	return NATConfig{
		STUNServers: []string{
			"stun.l.google.com:19302",
			"stun1.l.google.com:19302",
		},
		ProbeTimeout: Duration(3 * time.Second),
	}
}

// Validate 验证 NAT 配置
func (c *NATConfig) Validate() error {
	if c.ProbeTimeout <= 0 {
		return errors.New("nat: probe_timeout must be positive")
	}
	return nil
}
