package config

import "errors"

// 注入模式
const (
	// InjectionExec 调用外部注入程序
	InjectionExec = "exec"
	// InjectionLog 只记录日志（演练）
	InjectionLog = "log"
)

// InjectionConfig 注入原语配置
type InjectionConfig struct {
	// Mode exec 或 log
	Mode string `json:"mode"`

	// Command 注入程序
	Command string `json:"command"`

	// Prefix 命令前缀，例如 ["sudo"]
	Prefix []string `json:"prefix,omitempty"`

	// Interface 网络接口名
	Interface string `json:"interface"`

	// LocalAddress 本地地址，空表示取接口地址
	LocalAddress string `json:"local_address,omitempty"`
}

// DefaultInjectionConfig 返回默认注入配置
func DefaultInjectionConfig() InjectionConfig {
	return InjectionConfig{
		Mode:      InjectionExec,
		Command:   "natpeer",
		Interface: "wlan0",
	}
}

// Validate 验证注入配置
func (c *InjectionConfig) Validate() error {
	switch c.Mode {
	case InjectionExec:
		if c.Command == "" {
			return errors.New("injection: command cannot be empty")
		}
	case InjectionLog:
	default:
		return errors.New("injection: mode must be exec or log")
	}
	if c.Interface == "" && c.LocalAddress == "" {
		return errors.New("injection: interface or local_address required")
	}
	return nil
}
