package rendezvous

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-natpeer/config"
	wire "github.com/dep2p/go-natpeer/internal/core/rendezvous"
	"github.com/dep2p/go-natpeer/internal/server/directory"
	"github.com/dep2p/go-natpeer/internal/server/push"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("server/rendezvous")

// Router 按服务名查找服务及其设备
type Router interface {
	Route(serviceName string) (directory.Service, directory.Device, error)
}

// ============================================================================
//                              连接
// ============================================================================

// peerConn 带写锁的控制连接
type peerConn struct {
	net.Conn
	wmu  sync.Mutex
	once sync.Once
}

func (c *peerConn) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_, err = c.Write(data)
	return err
}

func (c *peerConn) close() {
	c.once.Do(func() { _ = c.Conn.Close() })
}

// endpoint 返回连接的观察地址
func (c *peerConn) endpoint() (string, int) {
	if tcp, ok := c.RemoteAddr().(*net.TCPAddr); ok {
		return tcp.IP.String(), tcp.Port
	}
	host, port, err := net.SplitHostPort(c.RemoteAddr().String())
	if err != nil {
		return c.RemoteAddr().String(), 0
	}
	p, _ := net.LookupPort("tcp", port)
	return host, p
}

// pending 等待设备应答或请求方参数的会合请求
type pending struct {
	client    *peerConn
	clientNAT bool
	device    *peerConn
	created   time.Time
}

// ============================================================================
//                              Server
// ============================================================================

// Server 会合控制服务器
type Server struct {
	router     Router
	pusher     push.Pusher
	limiter    *rate.Limiter
	ttl        time.Duration
	maxPayload int
	now        func() time.Time

	mu      sync.Mutex
	pending map[string]*pending
	conns   map[*peerConn]struct{}
	closed  bool

	wg sync.WaitGroup
}

// New 创建会合控制服务器
func New(cfg config.ServerConfig, router Router, pusher push.Pusher) *Server {
	return &Server{
		router:     router,
		pusher:     pusher,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestRate), cfg.RequestBurst),
		ttl:        cfg.PendingTTL.Duration(),
		maxPayload: cfg.MaxPayload,
		now:        time.Now,
		pending:    make(map[string]*pending),
		conns:      make(map[*peerConn]struct{}),
	}
}

// Serve 在 ln 上接受控制连接，直到 ctx 结束
//
// 返回前关闭监听器和所有连接，并等待连接处理协程退出。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.janitor(ctx)
	}()

	logger.Info("会合控制通道已启动", "addr", ln.Addr().String())

	var err error
	for {
		var conn net.Conn
		conn, err = ln.Accept()
		if err != nil {
			break
		}
		pc := &peerConn{Conn: conn}
		if !s.track(pc) {
			pc.close()
			break
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(pc)
		}()
	}

	s.shutdown()
	s.wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) track(pc *peerConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[pc] = struct{}{}
	return true
}

func (s *Server) untrack(pc *peerConn) {
	s.mu.Lock()
	delete(s.conns, pc)
	s.mu.Unlock()
}

func (s *Server) shutdown() {
	s.mu.Lock()
	s.closed = true
	conns := s.conns
	s.conns = make(map[*peerConn]struct{})
	s.pending = make(map[string]*pending)
	s.mu.Unlock()

	for pc := range conns {
		pc.close()
	}
}

// Pending 返回未完成请求数
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// handle 顺序处理一条连接上的消息
func (s *Server) handle(pc *peerConn) {
	defer func() {
		s.untrack(pc)
		pc.close()
	}()

	dec := wire.NewDecoder(pc, s.maxPayload)
	for {
		var msg wire.Message
		if err := dec.Decode("read control message", &msg); err != nil {
			logger.Debug("控制连接结束", "remote", pc.RemoteAddr().String(), "error", err)
			return
		}

		var keep bool
		switch msg.Event {
		case wire.EventRequest:
			keep = s.onRequest(pc, msg)
		case wire.EventResponse:
			keep = s.onResponse(pc, msg)
		case wire.EventConnectionInfo:
			keep = s.onConnectionInfo(pc, msg)
		default:
			logger.Debug("未知控制事件，关闭连接", "remote", pc.RemoteAddr().String(), "event", msg.Event)
		}
		if !keep {
			return
		}
	}
}

// newRequestID 生成 32 位大写十六进制请求 ID
func newRequestID() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

func (s *Server) onRequest(pc *peerConn, msg wire.Message) bool {
	if !s.limiter.Allow() {
		logger.Warn("连接请求过于频繁，已拒绝", "remote", pc.RemoteAddr().String())
		return false
	}
	if msg.Service == "" {
		return false
	}
	svc, dev, err := s.router.Route(msg.Service)
	if err != nil {
		logger.Info("无法路由连接请求", "service", msg.Service, "error", err)
		return false
	}

	id := newRequestID()
	s.mu.Lock()
	s.pending[id] = &pending{client: pc, clientNAT: msg.NAT, created: s.now()}
	s.mu.Unlock()

	payload, err := json.Marshal(types.PushMessage{Event: types.PushEventRequest, ID: id, Service: svc.Name})
	if err == nil {
		err = s.pusher.Push(context.Background(), dev.GCM, payload)
	}
	if err != nil {
		logger.Warn("推送连接请求失败", "service", svc.Name, "device", dev.ID, "error", err)
		s.drop(id)
		return false
	}

	logger.Info("连接请求已转发给设备", "id", id, "service", svc.Name, "device", dev.ID)
	return true
}

func (s *Server) onResponse(pc *peerConn, msg wire.Message) bool {
	s.mu.Lock()
	p := s.pending[msg.ID]
	if p != nil && p.device == nil {
		p.device = pc
	} else {
		p = nil
	}
	s.mu.Unlock()
	if p == nil {
		logger.Debug("未知请求 ID 的应答", "id", msg.ID)
		return false
	}

	clientIP, clientPort := p.client.endpoint()
	deviceIP, devicePort := pc.endpoint()

	// 对端位于 NAT 之后时，预测其下一个映射端口
	toClient := []types.PeerEndpoint{{
		ID: msg.ID, IP: clientIP, Port: clientPort,
		PeerIP: deviceIP, PeerPort: devicePort + natOffset(msg.NAT),
	}}
	toDevice := []types.PeerEndpoint{{
		ID: msg.ID, IP: deviceIP, Port: devicePort,
		PeerIP: clientIP, PeerPort: clientPort + natOffset(p.clientNAT),
	}}

	if err := p.client.writeJSON(toClient); err != nil {
		logger.Warn("写请求方端点失败", "id", msg.ID, "error", err)
		s.fail(msg.ID)
		return false
	}
	if err := pc.writeJSON(toDevice); err != nil {
		logger.Warn("写设备端点失败", "id", msg.ID, "error", err)
		s.fail(msg.ID)
		return false
	}
	return true
}

func (s *Server) onConnectionInfo(pc *peerConn, msg wire.Message) bool {
	if msg.ISN == nil || msg.TSVal == nil {
		return false
	}
	s.mu.Lock()
	p := s.pending[msg.ID]
	if p == nil || p.client != pc || p.device == nil {
		s.mu.Unlock()
		logger.Debug("未知请求 ID 的连接参数", "id", msg.ID)
		return false
	}
	delete(s.pending, msg.ID)
	s.mu.Unlock()

	err := p.device.writeJSON(types.TCPParams{ID: msg.ID, ISN: *msg.ISN, TSVal: *msg.TSVal})
	if err != nil {
		logger.Warn("写设备 TCP 参数失败", "id", msg.ID, "error", err)
	} else {
		logger.Info("会合交换完成", "id", msg.ID)
	}
	p.device.close()
	return false
}

func natOffset(behindNAT bool) int {
	if behindNAT {
		return 1
	}
	return 0
}

func (s *Server) drop(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// fail 删除请求并关闭双方连接
func (s *Server) fail(id string) {
	s.mu.Lock()
	p := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if p == nil {
		return
	}
	p.client.close()
	if p.device != nil {
		p.device.close()
	}
}

// janitor 定期清理超时请求
func (s *Server) janitor(ctx context.Context) {
	interval := s.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expire()
		}
	}
}

func (s *Server) expire() {
	cutoff := s.now().Add(-s.ttl)
	var expired []string

	s.mu.Lock()
	for id, p := range s.pending {
		if p.created.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		logger.Debug("会合请求超时", "id", id)
		s.fail(id)
	}
}
