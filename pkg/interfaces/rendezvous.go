package interfaces

import (
	"context"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// RendezvousClient 设备侧会合控制通道
//
// 每次调用独立建立一条 TCP 连接，不持有状态。
type RendezvousClient interface {
	// Respond 对连接请求执行两段式会合交换
	Respond(ctx context.Context, requestID string, behindNAT bool) (types.Exchange, error)
}

// Requester 请求方会合控制通道
//
// Request 与 SendConnectionInfo 在同一条连接上依次调用。
type Requester interface {
	// Request 请求连接指定服务，返回会合服务器分配的请求 ID 与对端端点
	Request(ctx context.Context, service string, behindNAT bool) (types.PeerEndpoint, error)

	// SendConnectionInfo 把本端 TCP 参数发给设备侧
	SendConnectionInfo(ctx context.Context, requestID string, isn, tsVal uint32) error

	// Close 关闭连接
	Close() error
}
