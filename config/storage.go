package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
//	${DataDir}/
//	└── natpeer.db/     # BadgerDB
type StorageConfig struct {
	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// InMemory 不落盘（测试用）
	InMemory bool `json:"in_memory,omitempty"`
}

// DefaultStorageConfig 返回默认存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{DataDir: "./data"}
}

// Validate 验证存储配置
func (c *StorageConfig) Validate() error {
	if !c.InMemory && c.DataDir == "" {
		return errors.New("storage: data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c *StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "natpeer.db")
}
