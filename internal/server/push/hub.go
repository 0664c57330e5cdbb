// Package push 实现推送中心
//
// 设备以 GET /push?token=<token> 建立 websocket 连接，服务端把推送消息编码为
// {"message":"<json string>"} 文本帧写给该 token 的所有连接。
package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/dep2p/go-natpeer/internal/core/notification"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
)

var logger = log.Logger("server/push")

// ErrNoSubscriber token 没有在线连接
var ErrNoSubscriber = errors.New("push: no subscriber for token")

const writeTimeout = 10 * time.Second

// Pusher 向设备投递推送消息
type Pusher interface {
	Push(ctx context.Context, token string, message []byte) error
}

type subscriber struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (s *subscriber) write(frame []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Hub 推送中心
type Hub struct {
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

var _ Pusher = (*Hub)(nil)

// NewHub 创建推送中心
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 设备不是浏览器，不校验 Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Register 在 router 上注册 /push
func (h *Hub) Register(router *mux.Router) {
	router.HandleFunc("/push", h.ServeHTTP).Methods(http.MethodGet)
}

// ServeHTTP 处理设备的推送连接
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Debug("websocket 升级失败", "error", err)
		return
	}
	sub := &subscriber{conn: conn}
	if !h.add(token, sub) {
		_ = conn.Close()
		return
	}
	logger.Info("设备已连接推送中心", "token", token, "remote", r.RemoteAddr)

	defer func() {
		h.remove(token, sub)
		_ = conn.Close()
		logger.Info("设备已断开推送中心", "token", token)
	}()

	// 设备不发送数据，读循环只用于感知断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(token string, sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set := h.subs[token]
	if set == nil {
		set = make(map[*subscriber]struct{})
		h.subs[token] = set
	}
	set[sub] = struct{}{}
	return true
}

func (h *Hub) remove(token string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.subs[token]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, token)
		}
	}
}

// Online 返回 token 的在线连接数
func (h *Hub) Online(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[token])
}

// Push 向 token 的所有连接写出推送帧
//
// 至少一个连接写成功即返回 nil。
func (h *Hub) Push(_ context.Context, token string, message []byte) error {
	frame, err := json.Marshal(notification.Frame{Message: string(message)})
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[token]))
	for sub := range h.subs[token] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return ErrNoSubscriber
	}
	var errs []error
	for _, sub := range targets {
		if err := sub.write(frame); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == len(targets) {
		return errors.Join(errs...)
	}
	return nil
}

// Close 断开所有连接
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, set := range subs {
		for sub := range set {
			sub.wmu.Lock()
			_ = sub.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			sub.wmu.Unlock()
			_ = sub.conn.Close()
		}
	}
	return nil
}
