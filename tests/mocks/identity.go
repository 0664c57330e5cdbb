package mocks

import (
	"sync"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// MockIdentityStore 内存 IdentityStore
type MockIdentityStore struct {
	GetFunc func(key string) (string, bool, error)
	SetFunc func(key, value string) error

	mu     sync.Mutex
	values map[string]string
}

var _ pkgif.IdentityStore = (*MockIdentityStore)(nil)

// NewMockIdentityStore 创建 MockIdentityStore，可传入初始键值
func NewMockIdentityStore(initial map[string]string) *MockIdentityStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MockIdentityStore{values: values}
}

// Get 读取键值
func (m *MockIdentityStore) Get(key string) (string, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set 写入键值
func (m *MockIdentityStore) Set(key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete 删除键
func (m *MockIdentityStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Value 直接读取（测试断言用）
func (m *MockIdentityStore) Value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}
