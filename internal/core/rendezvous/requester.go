package rendezvous

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// Requester 请求方会合会话
//
// 一个 Requester 对应一条控制连接：Request 取得会合服务器分配的请求 ID
// 与设备端点，SendConnectionInfo 随后把本端 TCP 参数交给服务器转发。
type Requester struct {
	conn net.Conn
	dec  *Decoder
	stop func() bool

	mu        sync.Mutex
	requestID string
	closed    bool
}

// Dial 建立请求方控制连接
//
// ctx 约束整个会话，会话结束后应调用 Close。
func Dial(ctx context.Context, cfg config.RendezvousConfig) (*Requester, error) {
	return DialWith(ctx, cfg, newDialFunc(cfg))
}

// DialWith 使用指定拨号函数建立请求方控制连接
func DialWith(ctx context.Context, cfg config.RendezvousConfig, dialFn DialFunc) (*Requester, error) {
	conn, stop, err := dial(ctx, dialFn, cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &Requester{
		conn: conn,
		dec:  NewDecoder(conn, cfg.MaxPayload),
		stop: stop,
	}, nil
}

// Request 请求连接到指定服务
//
// 返回的端点中 ID 为请求 ID，PeerIP/PeerPort 为设备的公网端点。
func (r *Requester) Request(ctx context.Context, service string, behindNAT bool) (types.PeerEndpoint, error) {
	if service == "" {
		return types.PeerEndpoint{}, types.ErrInvalidService
	}
	if err := r.checkOpen(); err != nil {
		return types.PeerEndpoint{}, err
	}
	stop := context.AfterFunc(ctx, func() { _ = r.conn.Close() })
	defer stop()

	if err := writeMessage(ctx, r.conn, RequestMessage(service, behindNAT)); err != nil {
		return types.PeerEndpoint{}, err
	}
	endpoint, err := ReadEndpoint(r.dec)
	if err != nil {
		return types.PeerEndpoint{}, decodeErr(ctx, r.conn, "read peer endpoint", err)
	}
	if endpoint.ID == "" {
		return types.PeerEndpoint{}, &types.ProtocolError{Op: "read peer endpoint", Cause: errors.New("missing request id")}
	}

	r.mu.Lock()
	r.requestID = endpoint.ID
	r.mu.Unlock()

	logger.Debug("会合请求已受理", "service", service, "requestID", endpoint.ID, "peer", endpoint.PeerIP)
	return endpoint, nil
}

// RequestID 返回最近一次 Request 分配的 ID
func (r *Requester) RequestID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requestID
}

// SendConnectionInfo 发送请求方 TCP 参数
func (r *Requester) SendConnectionInfo(ctx context.Context, requestID string, isn, tsVal uint32) error {
	if requestID == "" {
		return &types.ProtocolError{Op: "send connection_info", Cause: errors.New("empty request id")}
	}
	if err := r.checkOpen(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = r.conn.Close() })
	defer stop()
	return writeMessage(ctx, r.conn, ConnectionInfoMessage(requestID, isn, tsVal))
}

// Close 关闭控制连接
func (r *Requester) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.stop()
	return r.conn.Close()
}

func (r *Requester) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return types.ErrClosed
	}
	return nil
}
