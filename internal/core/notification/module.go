package notification

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Config   *config.Config `optional:"true"`
	Bus      pkgif.EventBus
	Store    pkgif.IdentityStore
	Override pkgif.NotificationChannel `name:"notification_override" optional:"true"`
}

// Module 返回 notification Fx 模块
func Module() fx.Option {
	return fx.Module("notification",
		fx.Provide(ProvideChannel),
	)
}

// ProvideChannel 按配置提供 NotificationChannel
//
// 外部提供的通道由调用方负责关闭。
func ProvideChannel(lc fx.Lifecycle, p Params) (pkgif.NotificationChannel, error) {
	if p.Override != nil {
		return p.Override, nil
	}
	cfg := config.DefaultNotificationConfig()
	if p.Config != nil {
		cfg = p.Config.Notification
	}

	switch cfg.Mode {
	case config.NotificationWebSocket:
		ws := NewWebSocket(cfg, p.Store)
		lc.Append(fx.Hook{
			OnStart: ws.Start,
			OnStop:  func(context.Context) error { return ws.Close() },
		})
		return ws, nil
	case config.NotificationLoopback, "":
		lb, err := NewLoopback(p.Bus, p.Store, cfg.Buffer)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return lb.Close() },
		})
		return lb, nil
	default:
		return nil, fmt.Errorf("notification: unknown mode %q", cfg.Mode)
	}
}
