package config

import (
	"errors"
	"net/url"
	"time"
)

// DirectoryConfig 目录服务客户端配置
type DirectoryConfig struct {
	// BaseURL REST 根地址，例如 http://host:8000/api
	BaseURL string `json:"base_url"`

	// Timeout 单次请求超时
	Timeout Duration `json:"timeout"`
}

// DefaultDirectoryConfig 返回默认目录服务配置
func DefaultDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		BaseURL: "http://127.0.0.1:8000/api",
		Timeout: Duration(10 * time.Second),
	}
}

// Validate 验证目录服务配置
func (c *DirectoryConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("directory: base_url cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("directory: base_url must be an http(s) URL")
	}
	if c.Timeout <= 0 {
		return errors.New("directory: timeout must be positive")
	}
	return nil
}
