package mocks

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// MockInjector 模拟 InjectionPort
type MockInjector struct {
	InjectFunc func(ctx context.Context, params types.InjectionParams) error

	mu    sync.Mutex
	calls []types.InjectionParams
	done  chan types.InjectionParams
}

var _ pkgif.InjectionPort = (*MockInjector)(nil)

// NewMockInjector 创建 MockInjector
func NewMockInjector() *MockInjector {
	return &MockInjector{done: make(chan types.InjectionParams, 64)}
}

// Inject 记录注入参数
func (m *MockInjector) Inject(ctx context.Context, params types.InjectionParams) error {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()

	select {
	case m.done <- params:
	default:
	}
	if m.InjectFunc != nil {
		return m.InjectFunc(ctx, params)
	}
	return nil
}

// Calls 返回调用记录副本
func (m *MockInjector) Calls() []types.InjectionParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.InjectionParams(nil), m.calls...)
}

// Injected 每次 Inject 调用都会在该通道上出现一次
func (m *MockInjector) Injected() <-chan types.InjectionParams {
	return m.done
}
