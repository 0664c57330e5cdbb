package stun

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pion/stun"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/nat/stun")

// 探测错误
var (
	// ErrNoServers 没有配置 STUN 服务器
	ErrNoServers = errors.New("no STUN servers")
	// ErrAllServersFailed 所有服务器都失败
	ErrAllServersFailed = errors.New("all STUN servers failed")
)

// Error STUN 错误
type Error struct {
	Server  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return "stun " + e.Server + ": " + e.Message + ": " + e.Cause.Error()
	}
	return "stun " + e.Server + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Report 一次探测结果
type Report struct {
	// Server 应答的 STUN 服务器
	Server string

	// LocalAddr 本地套接字地址
	LocalAddr *net.UDPAddr

	// MappedAddr 服务器观察到的映射地址
	MappedAddr *net.UDPAddr

	// BehindNAT 映射 IP 与本地 IP 不同
	BehindNAT bool
}

// Suggested 建议的 NAT 策略
func (r Report) Suggested() types.NatPolicy {
	return types.NatPolicyFromBool(r.BehindNAT)
}

// Client STUN 探测客户端
type Client struct {
	servers []string
	timeout time.Duration
}

// NewClient 创建探测客户端
func NewClient(cfg config.NATConfig) *Client {
	return &Client{
		servers: normalizeServers(cfg.STUNServers),
		timeout: cfg.ProbeTimeout.Duration(),
	}
}

// Servers 返回归一化后的服务器列表
func (c *Client) Servers() []string {
	return append([]string(nil), c.servers...)
}

// normalizeServers 去掉 "stun:" / "stun://" 前缀，得到 host:port
func normalizeServers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		s := strings.TrimSpace(raw)
		if i := strings.Index(s, "://"); i >= 0 {
			s = s[i+3:]
		} else {
			s = strings.TrimPrefix(s, "stun:")
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Probe 依次询问服务器，返回第一个成功的结果
func (c *Client) Probe(ctx context.Context) (Report, error) {
	if len(c.servers) == 0 {
		return Report{}, ErrNoServers
	}

	var lastErr error
	for _, server := range c.servers {
		report, err := c.query(ctx, server)
		if err == nil {
			logger.Info("NAT 探测完成",
				"server", server,
				"local", report.LocalAddr.String(),
				"mapped", report.MappedAddr.String(),
				"nat", report.BehindNAT)
			return report, nil
		}
		if ctx.Err() != nil {
			return Report{}, ctx.Err()
		}
		logger.Debug("STUN 服务器查询失败", "server", server, "error", err)
		lastErr = err
	}
	return Report{}, fmt.Errorf("%w: %v", ErrAllServersFailed, lastErr)
}

// query 查询单个 STUN 服务器
func (c *Client) query(ctx context.Context, server string) (Report, error) {
	raddr, err := net.ResolveUDPAddr("udp4", server)
	if err != nil {
		return Report{}, &Error{Server: server, Message: "resolve server address", Cause: err}
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return Report{}, &Error{Server: server, Message: "dial server", Cause: err}
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	req, err := stun.Build(stun.TransactionID, stun.BindingRequest)
	if err != nil {
		return Report{}, &Error{Server: server, Message: "build request", Cause: err}
	}
	if _, err := req.WriteTo(conn); err != nil {
		return Report{}, &Error{Server: server, Message: "send request", Cause: err}
	}

	buf := make([]byte, 1500)
	n, err := conn.Read(buf)
	if err != nil {
		return Report{}, &Error{Server: server, Message: "read response", Cause: err}
	}

	res := new(stun.Message)
	res.Raw = buf[:n]
	if err := res.Decode(); err != nil {
		return Report{}, &Error{Server: server, Message: "decode response", Cause: err}
	}
	if res.TransactionID != req.TransactionID {
		return Report{}, &Error{Server: server, Message: "transaction id mismatch"}
	}

	mapped, err := mappedAddress(res)
	if err != nil {
		return Report{}, &Error{Server: server, Message: "no mapped address in response", Cause: err}
	}

	local, _ := conn.LocalAddr().(*net.UDPAddr)
	return Report{
		Server:     server,
		LocalAddr:  local,
		MappedAddr: mapped,
		BehindNAT:  local == nil || !local.IP.Equal(mapped.IP),
	}, nil
}

// mappedAddress 优先读取 XOR-MAPPED-ADDRESS，旧服务器回退到 MAPPED-ADDRESS
func mappedAddress(res *stun.Message) (*net.UDPAddr, error) {
	var xorAddr stun.XORMappedAddress
	if err := xorAddr.GetFrom(res); err == nil {
		return &net.UDPAddr{IP: xorAddr.IP, Port: xorAddr.Port}, nil
	}
	var addr stun.MappedAddress
	if err := addr.GetFrom(res); err != nil {
		return nil, err
	}
	return &net.UDPAddr{IP: addr.IP, Port: addr.Port}, nil
}
