// Package kv 提供带前缀隔离的 KV 存储
package kv

import (
	"encoding/json"
	"errors"

	"github.com/dep2p/go-natpeer/internal/core/storage/engine"
)

// Store 带前缀隔离的 KV 存储
//
// 所有键自动加上前缀，Iterate 返回的键已去掉前缀。
type Store struct {
	engine engine.Engine
	prefix []byte
}

// New 创建新的 KVStore
func New(eng engine.Engine, prefix []byte) *Store {
	return &Store{engine: eng, prefix: prefix}
}

func (s *Store) prefixKey(key []byte) []byte {
	if len(s.prefix) == 0 {
		return key
	}
	prefixed := make([]byte, len(s.prefix)+len(key))
	copy(prefixed, s.prefix)
	copy(prefixed[len(s.prefix):], key)
	return prefixed
}

// Get 获取指定键的值
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.prefixKey(key))
}

// Put 设置键值对
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.prefixKey(key), value)
}

// Delete 删除指定键
func (s *Store) Delete(key []byte) error {
	return s.engine.Delete(s.prefixKey(key))
}

// Has 检查键是否存在
func (s *Store) Has(key []byte) (bool, error) {
	return s.engine.Has(s.prefixKey(key))
}

// GetString 读取字符串值，键不存在时 ok 为 false
func (s *Store) GetString(key string) (string, bool, error) {
	data, err := s.Get([]byte(key))
	if errors.Is(err, engine.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// PutString 写入字符串值
func (s *Store) PutString(key, value string) error {
	return s.Put([]byte(key), []byte(value))
}

// GetJSON 获取并反序列化 JSON 值
func (s *Store) GetJSON(key []byte, v interface{}) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// PutJSON 序列化并存储 JSON 值
func (s *Store) PutJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, data)
}

// Iterate 遍历前缀下的所有键值，传给 fn 的键不含 Store 前缀
func (s *Store) Iterate(fn func(key, value []byte) error) error {
	n := len(s.prefix)
	return s.engine.Iterate(s.prefix, func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Update 在单个事务中执行 fn，事务内的键同样自动加前缀
func (s *Store) Update(fn func(txn *Txn) error) error {
	return s.engine.Update(func(txn engine.Txn) error {
		return fn(&Txn{store: s, txn: txn})
	})
}

// Txn 带前缀的事务
type Txn struct {
	store *Store
	txn   engine.Txn
}

// Get 事务内读取
func (t *Txn) Get(key []byte) ([]byte, error) {
	return t.txn.Get(t.store.prefixKey(key))
}

// Put 事务内写入
func (t *Txn) Put(key, value []byte) error {
	return t.txn.Put(t.store.prefixKey(key), value)
}

// Delete 事务内删除
func (t *Txn) Delete(key []byte) error {
	return t.txn.Delete(t.store.prefixKey(key))
}

// PutJSON 事务内写入 JSON
func (t *Txn) PutJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.Put(key, data)
}
