package mocks

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// MockNotificationChannel 由测试驱动的推送通道
//
// 测试通过 Obtain / Revoke / Deliver 注入事件。RequestToken 在 NextToken 非空时
// 立即产生 obtained 事件；ReleaseToken 默认产生 revoked 事件。
type MockNotificationChannel struct {
	NextToken        string
	RequestTokenFunc func(ctx context.Context) error
	ReleaseTokenFunc func(ctx context.Context) error

	events chan types.Event

	mu           sync.Mutex
	token        string
	closed       bool
	requestCalls int
	releaseCalls int
}

var _ pkgif.NotificationChannel = (*MockNotificationChannel)(nil)

// NewMockNotificationChannel 创建推送通道，token 为当前本地推送身份（可为空）
func NewMockNotificationChannel(token string) *MockNotificationChannel {
	return &MockNotificationChannel{
		token:  token,
		events: make(chan types.Event, 64),
	}
}

// Events 返回事件通道
func (m *MockNotificationChannel) Events() <-chan types.Event {
	return m.events
}

// Token 当前推送身份
func (m *MockNotificationChannel) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// RequestToken 请求推送身份
func (m *MockNotificationChannel) RequestToken(ctx context.Context) error {
	m.mu.Lock()
	m.requestCalls++
	m.mu.Unlock()
	if m.RequestTokenFunc != nil {
		return m.RequestTokenFunc(ctx)
	}
	if m.NextToken != "" {
		m.Obtain(m.NextToken)
	}
	return nil
}

// ReleaseToken 释放推送身份
func (m *MockNotificationChannel) ReleaseToken(ctx context.Context) error {
	m.mu.Lock()
	m.releaseCalls++
	token := m.token
	m.mu.Unlock()
	if m.ReleaseTokenFunc != nil {
		return m.ReleaseTokenFunc(ctx)
	}
	m.Revoke(token)
	return nil
}

// Obtain 注入身份获得事件
func (m *MockNotificationChannel) Obtain(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	m.send(types.IdentityObtained(token))
}

// Revoke 注入身份撤销事件
func (m *MockNotificationChannel) Revoke(token string) {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	m.send(types.IdentityRevoked(token))
}

// Deliver 注入消息事件
func (m *MockNotificationChannel) Deliver(payload string) {
	m.send(types.MessageReceived([]byte(payload)))
}

// Calls 返回 RequestToken、ReleaseToken 的调用次数
func (m *MockNotificationChannel) Calls() (request, release int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCalls, m.releaseCalls
}

func (m *MockNotificationChannel) send(ev types.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events <- ev
}

// Close 关闭事件通道
func (m *MockNotificationChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}
