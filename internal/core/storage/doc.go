// Package storage 提供 natpeer 的持久化存储
//
// 所有数据统一存放在一个 BadgerDB 数据库中，通过键前缀隔离：
//
//	s/   - 设备设置（IdentityStore）
//	d/   - 目录服务设备表（服务端）
//	v/   - 目录服务服务表（服务端）
//
// 测试使用 t.TempDir() 或 InMemory 模式。
package storage
