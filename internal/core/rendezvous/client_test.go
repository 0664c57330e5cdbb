package rendezvous

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// mockServer 单连接会合服务器
//
// 读取客户端第一条消息后执行 script，把收到的消息送到 received。
type mockServer struct {
	ln       net.Listener
	received chan map[string]any
}

func newMockServer(t *testing.T, script func(conn net.Conn)) *mockServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &mockServer{ln: ln, received: make(chan map[string]any, 4)}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		dec := json.NewDecoder(bufio.NewReader(conn))
		var msg map[string]any
		if err := dec.Decode(&msg); err != nil {
			return
		}
		s.received <- msg
		script(conn)
	}()
	return s
}

func (s *mockServer) config() config.RendezvousConfig {
	cfg := config.DefaultRendezvousConfig()
	cfg.Addr = s.ln.Addr().String()
	cfg.DialTimeout = config.Duration(2 * time.Second)
	cfg.ExchangeTimeout = config.Duration(2 * time.Second)
	return cfg
}

func writeAll(parts ...string) func(net.Conn) {
	return func(conn net.Conn) {
		for _, p := range parts {
			_, _ = conn.Write([]byte(p))
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestRespond_TwoPayloads(t *testing.T) {
	srv := newMockServer(t, writeAll(
		`[{"peer_ip":"10.0.0.5","peer_port":4000}]`,
		`{"isn":12345,"ts_val":98765}`,
	))

	ex, err := New(srv.config()).Respond(context.Background(), "req7", false)
	require.NoError(t, err)

	resp, err := ex.Response()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", resp.PeerAddress)
	assert.Equal(t, uint16(4000), resp.PeerPort)
	assert.Equal(t, uint32(12345), resp.InitialSeq)
	assert.Equal(t, uint32(98765), resp.Timestamp)

	// 合并结果为两元素数组
	data, err := json.Marshal(ex)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"peer_ip":"10.0.0.5","peer_port":4000},{"isn":12345,"ts_val":98765}]`, string(data))

	msg := <-srv.received
	assert.Equal(t, "response", msg["event"])
	assert.Equal(t, "req7", msg["id"])
	_, hasNAT := msg["nat"]
	assert.False(t, hasNAT, "nat must be omitted when not behind NAT")
}

func TestRespond_BehindNATSendsFlag(t *testing.T) {
	srv := newMockServer(t, writeAll(
		`[{"peer_ip":"192.0.2.1","peer_port":5000}]`,
		`{"isn":1,"ts_val":2}`,
	))

	_, err := New(srv.config()).Respond(context.Background(), "r1", true)
	require.NoError(t, err)

	msg := <-srv.received
	assert.Equal(t, true, msg["nat"])
}

func TestRespond_CoalescedPayloads(t *testing.T) {
	srv := newMockServer(t, writeAll(
		`[{"id":"r2","peer_ip":"10.0.0.5","peer_port":4000}]{"isn":7,"ts_val":8}`,
	))

	ex, err := New(srv.config()).Respond(context.Background(), "r2", false)
	require.NoError(t, err)
	assert.Equal(t, "r2", ex.Endpoint.ID)
	assert.Equal(t, uint32(7), ex.Params.ISN)
	assert.Equal(t, uint32(8), ex.Params.TSVal)
}

func TestRespond_SplitPayload(t *testing.T) {
	srv := newMockServer(t, writeAll(
		`[{"peer_ip":"10.0`,
		`.0.5","peer_port":4000}]{"isn":`,
		`3,"ts_val":4}`,
	))

	ex, err := New(srv.config()).Respond(context.Background(), "r3", false)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ex.Endpoint.PeerIP)
	assert.Equal(t, uint32(3), ex.Params.ISN)
}

func TestRespond_ClosedBeforeSecondPayload(t *testing.T) {
	srv := newMockServer(t, writeAll(`[{"peer_ip":"10.0.0.5","peer_port":4000}]`))

	_, err := New(srv.config()).Respond(context.Background(), "r4", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProtocol), "got %v", err)
}

func TestRespond_ClosedWithoutData(t *testing.T) {
	srv := newMockServer(t, func(net.Conn) {})

	_, err := New(srv.config()).Respond(context.Background(), "r5", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProtocol), "got %v", err)
}

func TestRespond_TruncatedPayload(t *testing.T) {
	srv := newMockServer(t, writeAll(`[{"peer_ip":"10.0.0.5","peer_`))

	_, err := New(srv.config()).Respond(context.Background(), "r6", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProtocol), "got %v", err)
}

func TestRespond_MalformedPayloads(t *testing.T) {
	cases := map[string][]string{
		"not json":      {`hello`},
		"empty array":   {`[]`, `{"isn":1,"ts_val":2}`},
		"missing peer":  {`[{"peer_port":4000}]`, `{"isn":1,"ts_val":2}`},
		"missing ts":    {`[{"peer_ip":"10.0.0.5","peer_port":4000}]`, `{"isn":1}`},
		"wrong type":    {`{"peer_ip":"10.0.0.5"}`},
		"string isn":    {`[{"peer_ip":"10.0.0.5","peer_port":4000}]`, `{"isn":"1","ts_val":2}`},
		"negative port": {`[{"peer_ip":"10.0.0.5","peer_port":-1}]`, `{"isn":-5,"ts_val":2}`},
	}
	for name, parts := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newMockServer(t, writeAll(parts...))
			_, err := New(srv.config()).Respond(context.Background(), "bad", false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrProtocol), "got %v", err)
		})
	}
}

func TestRespond_OversizedPayload(t *testing.T) {
	big := `[{"peer_ip":"10.0.0.5","peer_port":4000,"pad":"` + strings.Repeat("x", 4096) + `"}]`
	srv := newMockServer(t, writeAll(big, `{"isn":1,"ts_val":2}`))

	cfg := srv.config()
	cfg.MaxPayload = 256
	_, err := New(cfg).Respond(context.Background(), "big", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrProtocol), "got %v", err)
}

func TestRespond_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := config.DefaultRendezvousConfig()
	cfg.Addr = addr
	cfg.DialTimeout = config.Duration(time.Second)

	_, err = New(cfg).Respond(context.Background(), "r7", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTransport), "got %v", err)
}

func TestRespond_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := newMockServer(t, func(net.Conn) { <-release })
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := New(srv.config()).Respond(ctx, "r8", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRespond_ExchangeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newMockServer(t, func(net.Conn) { <-release })
	defer close(release)

	cfg := srv.config()
	cfg.ExchangeTimeout = config.Duration(100 * time.Millisecond)

	_, err := New(cfg).Respond(context.Background(), "r9", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrTransport), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestMessage_Encode(t *testing.T) {
	data, err := ResponseMessage("abc", false).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"response","id":"abc"}`, string(data))

	data, err = RequestMessage("ssh", true).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"request","service":"ssh","nat":true}`, string(data))

	data, err = ConnectionInfoMessage("abc", 0, 9).Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"connection_info","id":"abc","isn":0,"ts_val":9}`, string(data))
}
