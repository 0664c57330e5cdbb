package mocks

import (
	"context"
	"fmt"
	"sync"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// MockDirectory 模拟 DirectoryClient
//
// 默认行为：设备 ID 为 "dev-<token>"，服务 ID 为 "svc-<name>"，注销总是成功。
type MockDirectory struct {
	RegisterDeviceFunc    func(ctx context.Context, pushToken string) (string, error)
	UnregisterDeviceFunc  func(ctx context.Context, deviceID string) error
	RegisterServiceFunc   func(ctx context.Context, name, deviceID string) (string, error)
	UnregisterServiceFunc func(ctx context.Context, remoteID string) error

	mu                     sync.Mutex
	RegisterDeviceCalls    []string
	UnregisterDeviceCalls  []string
	RegisterServiceCalls   [][2]string
	UnregisterServiceCalls []string
}

var _ pkgif.DirectoryClient = (*MockDirectory)(nil)

// NewMockDirectory 创建 MockDirectory
func NewMockDirectory() *MockDirectory {
	return &MockDirectory{}
}

// RegisterDevice 注册设备
func (m *MockDirectory) RegisterDevice(ctx context.Context, pushToken string) (string, error) {
	m.mu.Lock()
	m.RegisterDeviceCalls = append(m.RegisterDeviceCalls, pushToken)
	m.mu.Unlock()
	if m.RegisterDeviceFunc != nil {
		return m.RegisterDeviceFunc(ctx, pushToken)
	}
	return "dev-" + pushToken, nil
}

// UnregisterDevice 注销设备
func (m *MockDirectory) UnregisterDevice(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	m.UnregisterDeviceCalls = append(m.UnregisterDeviceCalls, deviceID)
	m.mu.Unlock()
	if m.UnregisterDeviceFunc != nil {
		return m.UnregisterDeviceFunc(ctx, deviceID)
	}
	return nil
}

// RegisterService 注册服务
func (m *MockDirectory) RegisterService(ctx context.Context, name, deviceID string) (string, error) {
	m.mu.Lock()
	m.RegisterServiceCalls = append(m.RegisterServiceCalls, [2]string{name, deviceID})
	m.mu.Unlock()
	if m.RegisterServiceFunc != nil {
		return m.RegisterServiceFunc(ctx, name, deviceID)
	}
	return fmt.Sprintf("svc-%s", name), nil
}

// UnregisterService 注销服务
func (m *MockDirectory) UnregisterService(ctx context.Context, remoteID string) error {
	m.mu.Lock()
	m.UnregisterServiceCalls = append(m.UnregisterServiceCalls, remoteID)
	m.mu.Unlock()
	if m.UnregisterServiceFunc != nil {
		return m.UnregisterServiceFunc(ctx, remoteID)
	}
	return nil
}

// Calls 返回各方法的调用次数：注册设备、注销设备、注册服务、注销服务
func (m *MockDirectory) Calls() (regDev, unregDev, regSvc, unregSvc int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RegisterDeviceCalls), len(m.UnregisterDeviceCalls),
		len(m.RegisterServiceCalls), len(m.UnregisterServiceCalls)
}

// UnregisteredServices 返回注销服务调用的参数副本
func (m *MockDirectory) UnregisteredServices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.UnregisterServiceCalls...)
}
