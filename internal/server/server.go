package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/core/storage"
	"github.com/dep2p/go-natpeer/internal/server/directory"
	"github.com/dep2p/go-natpeer/internal/server/push"
	"github.com/dep2p/go-natpeer/internal/server/rendezvous"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
)

var logger = log.Logger("server")

const shutdownTimeout = 5 * time.Second

// Server natpeer 服务端
type Server struct {
	cfg     config.ServerConfig
	eng     storage.Engine
	ownsEng bool

	store   *directory.Store
	hub     *push.Hub
	control *rendezvous.Server
	router  *mux.Router
}

// New 在 cfg.DataDir 打开目录数据库并创建服务端
func New(cfg config.ServerConfig) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	eng, err := storage.Open(config.StorageConfig{DataDir: cfg.DataDir})
	if err != nil {
		return nil, err
	}
	s := NewWithEngine(cfg, eng)
	s.ownsEng = true
	return s, nil
}

// NewWithEngine 使用已打开的存储引擎创建服务端
//
// 调用方负责关闭 eng。
func NewWithEngine(cfg config.ServerConfig, eng storage.Engine) *Server {
	store := directory.NewStore(eng)
	hub := push.NewHub()

	router := mux.NewRouter()
	directory.NewAPI(store).Register(router)
	hub.Register(router)

	return &Server{
		cfg:     cfg,
		eng:     eng,
		store:   store,
		hub:     hub,
		control: rendezvous.New(cfg, store, hub),
		router:  router,
	}
}

// Handler 返回目录与推送的 HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store 返回目录存储
func (s *Server) Store() *directory.Store {
	return s.store
}

// Hub 返回推送中心
func (s *Server) Hub() *push.Hub {
	return s.hub
}

// Run 监听配置的地址并运行，直到 ctx 结束
func (s *Server) Run(ctx context.Context) error {
	apiLn, err := net.Listen("tcp", s.cfg.APIListen)
	if err != nil {
		return err
	}
	ctrlLn, err := net.Listen("tcp", s.cfg.ControlListen)
	if err != nil {
		_ = apiLn.Close()
		return err
	}
	return s.Serve(ctx, apiLn, ctrlLn)
}

// Serve 在给定监听器上运行，直到 ctx 结束或任一监听器失败
func (s *Server) Serve(ctx context.Context, apiLn, ctrlLn net.Listener) error {
	if err := s.eng.Start(); err != nil {
		_ = apiLn.Close()
		_ = ctrlLn.Close()
		return err
	}

	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("目录与推送服务已启动", "addr", apiLn.Addr().String())
		if err := httpSrv.Serve(apiLn); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return s.control.Serve(gctx, ctrlLn)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("正在关闭服务端")
		// 先断开 websocket，Shutdown 不等待已劫持的连接
		_ = s.hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	return g.Wait()
}

// Close 关闭服务端自己打开的存储引擎
func (s *Server) Close() error {
	if s.ownsEng {
		return s.eng.Close()
	}
	return nil
}
