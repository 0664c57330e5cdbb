package coordinator

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/core/injection"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Config       *config.Config `optional:"true"`
	Store        pkgif.IdentityStore
	Directory    pkgif.DirectoryClient
	Registry     pkgif.ServiceRegistry
	Rendezvous   pkgif.RendezvousClient
	Injector     pkgif.InjectionPort
	Notification pkgif.NotificationChannel
	LocalAddr    injection.LocalAddrFunc
	Bus          pkgif.EventBus  `optional:"true"`
	OnDone       RequestDoneFunc `name:"on_request_done" optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Coordinator *Coordinator
	Interface   pkgif.Coordinator
}

// Module 返回 coordinator Fx 模块
//
// OnStart 启动协调器，OnStop 取消进行中的会合交换并等待任务结束。
func Module() fx.Option {
	return fx.Module("coordinator",
		fx.Provide(ProvideCoordinator),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideCoordinator 提供协调器
func ProvideCoordinator(p Params) (Result, error) {
	cfg := config.DefaultCoordinatorConfig()
	if p.Config != nil {
		cfg = p.Config.Coordinator
	}
	opts := []Option{WithHistorySize(cfg.HistorySize)}
	if p.Bus != nil {
		opts = append(opts, WithEventBus(p.Bus))
	}
	if p.OnDone != nil {
		opts = append(opts, WithOnRequestDone(p.OnDone))
	}
	c, err := New(Deps{
		Store:        p.Store,
		Directory:    p.Directory,
		Registry:     p.Registry,
		Rendezvous:   p.Rendezvous,
		Injector:     p.Injector,
		Notification: p.Notification,
		LocalAddr:    p.LocalAddr,
	}, opts...)
	if err != nil {
		return Result{}, err
	}
	return Result{Coordinator: c, Interface: c}, nil
}

func registerLifecycle(lc fx.Lifecycle, c *Coordinator) {
	lc.Append(fx.Hook{
		OnStart: c.Start,
		OnStop:  c.Stop,
	})
}
