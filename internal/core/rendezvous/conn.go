package rendezvous

import (
	"context"
	"net"
	"time"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// DialFunc 建立控制通道连接
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// newDialFunc 按配置创建拨号函数
func newDialFunc(cfg config.RendezvousConfig) DialFunc {
	d := &net.Dialer{Timeout: cfg.DialTimeout.Duration()}
	if cfg.ReuseAddr {
		d.Control = reuseControl
	}
	return d.DialContext
}

// dial 建连并把 ctx 的结束绑定到连接
//
// 返回的 stop 必须在连接关闭前调用。
func dial(ctx context.Context, dialFn DialFunc, addr string) (net.Conn, func() bool, error) {
	conn, err := dialFn(ctx, "tcp", addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, nil, &types.TransportError{Op: "connect", Addr: addr, Cause: err}
	}
	// ctx 结束时让截止时间立即到期，打断阻塞中的读写
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	return conn, stop, nil
}

// writeMessage 写一条控制消息
func writeMessage(ctx context.Context, conn net.Conn, msg Message) error {
	data, err := msg.Encode()
	if err != nil {
		return &types.ProtocolError{Op: "encode " + msg.Event, Cause: err}
	}
	if _, err := conn.Write(data); err != nil {
		return transportErr(ctx, "write "+msg.Event, conn, err)
	}
	return nil
}

// transportErr 构造传输错误，ctx 已结束时以 ctx 错误为原因
func transportErr(ctx context.Context, op string, conn net.Conn, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return &types.TransportError{Op: op, Addr: conn.RemoteAddr().String(), Cause: err}
}

// decodeErr 在 ctx 已结束时把读错误改写为携带 ctx 错误的传输错误
func decodeErr(ctx context.Context, conn net.Conn, op string, err error) error {
	if ctx.Err() != nil {
		return transportErr(ctx, op, conn, err)
	}
	return err
}
