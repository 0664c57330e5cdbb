package mocks

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// RespondCall Respond 调用参数
type RespondCall struct {
	RequestID string
	BehindNAT bool
}

// MockRendezvous 模拟 RendezvousClient
//
// 默认返回 Exchange 字段中的值。
type MockRendezvous struct {
	Exchange    types.Exchange
	RespondFunc func(ctx context.Context, requestID string, behindNAT bool) (types.Exchange, error)

	mu    sync.Mutex
	calls []RespondCall
}

var _ pkgif.RendezvousClient = (*MockRendezvous)(nil)

// NewMockRendezvous 创建返回固定对端参数的 MockRendezvous
func NewMockRendezvous(peerIP string, peerPort int, isn, ts uint32) *MockRendezvous {
	return &MockRendezvous{Exchange: types.Exchange{
		Endpoint: types.PeerEndpoint{PeerIP: peerIP, PeerPort: peerPort},
		Params:   types.TCPParams{ISN: isn, TSVal: ts},
	}}
}

// Respond 执行会合交换
func (m *MockRendezvous) Respond(ctx context.Context, requestID string, behindNAT bool) (types.Exchange, error) {
	m.mu.Lock()
	m.calls = append(m.calls, RespondCall{RequestID: requestID, BehindNAT: behindNAT})
	m.mu.Unlock()
	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, requestID, behindNAT)
	}
	return m.Exchange, nil
}

// Calls 返回调用记录副本
func (m *MockRendezvous) Calls() []RespondCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RespondCall(nil), m.calls...)
}
