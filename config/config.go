// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 都带有 DefaultXxxConfig() 与 Validate()。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Directory.BaseURL = "http://natpeer.example.org:8000/api"
//	cfg.Rendezvous.Addr = "natpeer.example.org:8001"
//
//	// 从 JSON 文件加载
//	cfg, err := config.LoadFile("natpeer.json")
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config natpeer 的完整配置
type Config struct {
	// Directory 目录服务客户端
	Directory DirectoryConfig `json:"directory"`

	// Rendezvous 会合控制通道
	Rendezvous RendezvousConfig `json:"rendezvous"`

	// Notification 推送通道
	Notification NotificationConfig `json:"notification"`

	// Storage 数据目录
	Storage StorageConfig `json:"storage"`

	// Injection 注入原语
	Injection InjectionConfig `json:"injection"`

	// NAT NAT 探测
	NAT NATConfig `json:"nat"`

	// Coordinator 连接建立协调器
	Coordinator CoordinatorConfig `json:"coordinator"`

	// Server 会合 / 目录 / 推送服务端
	Server ServerConfig `json:"server"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Directory:    DefaultDirectoryConfig(),
		Rendezvous:   DefaultRendezvousConfig(),
		Notification: DefaultNotificationConfig(),
		Storage:      DefaultStorageConfig(),
		Injection:    DefaultInjectionConfig(),
		NAT:          DefaultNATConfig(),
		Coordinator:  DefaultCoordinatorConfig(),
		Server:       DefaultServerConfig(),
	}
}

// Validate 验证所有子配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	validators := []interface{ Validate() error }{
		&c.Directory,
		&c.Rendezvous,
		&c.Notification,
		&c.Storage,
		&c.Injection,
		&c.NAT,
		&c.Coordinator,
		&c.Server,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FromJSON 从 JSON 数据创建配置，未出现的字段保留默认值
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return FromJSON(data)
}

// ToJSON 序列化为缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
