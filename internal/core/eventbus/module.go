package eventbus

import (
	"context"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"go.uber.org/fx"
)

// Result Fx 模块输出
type Result struct {
	fx.Out

	Bus      *Bus
	EventBus pkgif.EventBus
}

// Module 返回 eventbus Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventBus 提供 EventBus 实例
func ProvideEventBus() Result {
	bus := NewBus()
	return Result{Bus: bus, EventBus: bus}
}

func registerLifecycle(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			logger.Debug("关闭事件总线")
			return bus.Close()
		},
	})
}
