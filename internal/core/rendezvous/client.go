package rendezvous

import (
	"context"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/rendezvous")

// Client 设备侧会合客户端
//
// 每次 Respond 打开一条新连接，交换结束后关闭。Client 本身无状态，可并发使用。
type Client struct {
	cfg    config.RendezvousConfig
	dialFn DialFunc
}

// New 创建会合客户端
func New(cfg config.RendezvousConfig) *Client {
	return &Client{cfg: cfg, dialFn: newDialFunc(cfg)}
}

// NewWithDialer 使用自定义拨号函数创建（测试用）
func NewWithDialer(cfg config.RendezvousConfig, dialFn DialFunc) *Client {
	return &Client{cfg: cfg, dialFn: dialFn}
}

// Addr 返回会合服务器地址
func (c *Client) Addr() string {
	return c.cfg.Addr
}

// Respond 执行一次两段式交换
//
// 发送 response 事件后依次读取对端端点与 TCP 参数。交换在 ExchangeTimeout 内完成，
// ctx 取消会立即打断读写。
func (c *Client) Respond(ctx context.Context, requestID string, behindNAT bool) (types.Exchange, error) {
	if timeout := c.cfg.ExchangeTimeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, stop, err := dial(ctx, c.dialFn, c.cfg.Addr)
	if err != nil {
		return types.Exchange{}, err
	}
	defer func() {
		stop()
		_ = conn.Close()
	}()

	logger.Debug("会合连接已建立", "addr", c.cfg.Addr, "requestID", requestID, "nat", behindNAT)

	if err := writeMessage(ctx, conn, ResponseMessage(requestID, behindNAT)); err != nil {
		return types.Exchange{}, err
	}

	dec := NewDecoder(conn, c.cfg.MaxPayload)

	endpoint, err := ReadEndpoint(dec)
	if err != nil {
		return types.Exchange{}, decodeErr(ctx, conn, "read peer endpoint", err)
	}
	params, err := ReadParams(dec)
	if err != nil {
		return types.Exchange{}, decodeErr(ctx, conn, "read tcp params", err)
	}

	logger.Debug("会合交换完成",
		"requestID", requestID,
		"peer", endpoint.PeerIP,
		"peerPort", endpoint.PeerPort,
		"isn", params.ISN,
		"tsVal", params.TSVal)

	return types.Exchange{Endpoint: endpoint, Params: params}, nil
}
