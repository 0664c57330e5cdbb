// Package engine 定义存储引擎的内部接口与配置
package engine

import (
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Engine 内部存储引擎
//
// 在公共 Engine 接口之上增加生命周期与原子更新。
type Engine interface {
	pkgif.Engine

	// Start 启动后台任务（GC）
	Start() error

	// Update 在单个读写事务中执行 fn
	Update(fn func(txn Txn) error) error
}

// Txn 事务内可用的操作
type Txn interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
}
