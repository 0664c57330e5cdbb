package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/dep2p/go-natpeer/config"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// 推送连接重连间隔
const (
	minReconnectDelay = time.Second
	maxReconnectDelay = time.Minute
)

// newReconnectBackOff 重连退避，从 1s 起按倍数增长至 1min
func newReconnectBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = minReconnectDelay
	bo.MaxInterval = maxReconnectDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2
	bo.Reset()
	return bo
}

// Frame 推送中心下行帧
//
// Message 为 JSON 字符串形式的推送消息。
type Frame struct {
	Message string `json:"message"`
}

// WebSocket 连接服务端推送中心的推送通道
//
// 获得推送身份后常驻一条 websocket 连接，连接断开时以指数退避重连，
// 直到推送身份被释放或通道关闭。
type WebSocket struct {
	*channel

	pushURL string
	dialer  *websocket.Dialer

	connMu sync.Mutex
	cancel context.CancelFunc
	conn   *websocket.Conn
}

var _ pkgif.NotificationChannel = (*WebSocket)(nil)

// NewWebSocket 创建 websocket 推送通道
func NewWebSocket(cfg config.NotificationConfig, store pkgif.IdentityStore) *WebSocket {
	return &WebSocket{
		channel: newChannel(store, cfg.Buffer),
		pushURL: cfg.PushURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout.Duration(),
		},
	}
}

// Start 已有推送身份时建立推送连接
func (w *WebSocket) Start(_ context.Context) error {
	if token := w.Token(); token != "" {
		w.connect(token)
	}
	return nil
}

// RequestToken 生成推送身份、建立连接并异步投递 obtained 事件
func (w *WebSocket) RequestToken(_ context.Context) error {
	token, err := w.obtain()
	if err != nil {
		return err
	}
	w.connect(token)
	w.deliver(types.IdentityObtained(token))
	return nil
}

// ReleaseToken 断开连接、清除推送身份并异步投递 revoked 事件
func (w *WebSocket) ReleaseToken(_ context.Context) error {
	w.disconnect()
	token, err := w.release()
	if err != nil {
		return err
	}
	if token != "" {
		w.deliver(types.IdentityRevoked(token))
	}
	return nil
}

// Close 关闭推送通道
func (w *WebSocket) Close() error {
	w.shutdown(w.disconnect)
	return nil
}

// endpoint 返回带 token 的推送地址
func (w *WebSocket) endpoint(token string) (string, error) {
	u, err := url.Parse(w.pushURL)
	if err != nil {
		return "", fmt.Errorf("parse push url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// connect 启动后台连接循环，已在运行时不重复启动
func (w *WebSocket) connect(token string) {
	w.connMu.Lock()
	defer w.connMu.Unlock()
	if w.cancel != nil {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx, token)
}

// disconnect 停止后台连接循环
func (w *WebSocket) disconnect() {
	w.connMu.Lock()
	defer w.connMu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
	if w.conn != nil {
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = w.conn.Close()
		w.conn = nil
	}
}

func (w *WebSocket) run(ctx context.Context, token string) {
	defer w.wg.Done()

	target, err := w.endpoint(token)
	if err != nil {
		logger.Error("推送地址无效", "error", err)
		return
	}

	bo := newReconnectBackOff()
	for {
		connected, err := w.session(ctx, target)
		if ctx.Err() != nil {
			return
		}
		// 成功建立过连接则从最小间隔重新开始
		if connected {
			bo.Reset()
		}
		delay := bo.NextBackOff()
		logger.Warn("推送连接断开", "error", err, "retryIn", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.done:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session 建立一次连接并读取直到出错，connected 表示握手是否成功
func (w *WebSocket) session(ctx context.Context, target string) (connected bool, err error) {
	conn, resp, err := w.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, err
	}

	w.connMu.Lock()
	if ctx.Err() != nil {
		w.connMu.Unlock()
		_ = conn.Close()
		return false, ctx.Err()
	}
	w.conn = conn
	w.connMu.Unlock()

	logger.Info("推送连接已建立", "url", w.pushURL)

	defer func() {
		w.connMu.Lock()
		if w.conn == conn {
			w.conn = nil
		}
		w.connMu.Unlock()
		_ = conn.Close()
	}()

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				logger.Warn("丢弃无效推送帧", "error", err)
				continue
			}
			return true, err
		}
		if frame.Message == "" {
			continue
		}
		if !w.deliverSync(types.MessageReceived([]byte(frame.Message))) {
			return true, types.ErrClosed
		}
	}
}
