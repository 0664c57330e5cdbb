package interfaces

// Engine 键值存储引擎
//
// 默认实现基于 BadgerDB。实现必须并发安全。
type Engine interface {
	// Get 获取值的副本，键不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 设置键值对，已存在时覆盖
	Put(key, value []byte) error

	// Delete 删除键
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// Iterate 按键序遍历指定前缀下的所有键值，fn 返回错误时停止
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	// Close 关闭引擎
	Close() error
}
