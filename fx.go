package natpeer

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-natpeer/internal/core/coordinator"
	"github.com/dep2p/go-natpeer/internal/core/directory"
	"github.com/dep2p/go-natpeer/internal/core/eventbus"
	"github.com/dep2p/go-natpeer/internal/core/identity"
	"github.com/dep2p/go-natpeer/internal/core/injection"
	"github.com/dep2p/go-natpeer/internal/core/notification"
	"github.com/dep2p/go-natpeer/internal/core/registry"
	"github.com/dep2p/go-natpeer/internal/core/rendezvous"
	"github.com/dep2p/go-natpeer/internal/core/storage"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序即 OnStart 顺序，OnStop 逆序执行：
//
//	storage → eventbus → identity → directory → registry →
//	rendezvous → injection → notification → coordinator
//
// 停止时协调器最先取消进行中的会合交换，随后推送通道关闭，
// registry 尽力注销全部服务，最后关闭存储。
func buildFxApp(o *options, a *Agent) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置验证（前置）
	// ════════════════════════════════════════════════════════════════════════
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 组件模块
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(o.config),

		storage.Module(),
		eventbus.Module(),
		identity.Module(),
		directory.Module(),
		registry.Module(),
		rendezvous.Module(),
		injection.Module(),
		notification.Module(),
		coordinator.Module(),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 3. 组件替换（命名依赖，优先于内置实现）
	// ════════════════════════════════════════════════════════════════════════
	if o.identity != nil {
		modules = append(modules, supplyNamed[pkgif.IdentityStore](o.identity, "identity_override"))
	}
	if o.directory != nil {
		modules = append(modules, supplyNamed[pkgif.DirectoryClient](o.directory, "directory_override"))
	}
	if o.rendezvous != nil {
		modules = append(modules, supplyNamed[pkgif.RendezvousClient](o.rendezvous, "rendezvous_override"))
	}
	if o.injector != nil {
		modules = append(modules, supplyNamed[pkgif.InjectionPort](o.injector, "injector_override"))
	}
	if o.notification != nil {
		modules = append(modules, supplyNamed[pkgif.NotificationChannel](o.notification, "notification_override"))
	}
	if o.onRequestDone != nil {
		modules = append(modules, supplyNamed[coordinator.RequestDoneFunc](o.onRequestDone, "on_request_done"))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展（Fx Options）
	// ════════════════════════════════════════════════════════════════════════
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. Agent 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules, fx.Invoke(injectAgentComponents(a)))

	// ════════════════════════════════════════════════════════════════════════
	// 6. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		// 禁用 Fx 日志输出（避免干扰用户日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// supplyNamed 以命名依赖提供 v
func supplyNamed[T any](v T, name string) fx.Option {
	return fx.Provide(fx.Annotate(
		func() T { return v },
		fx.ResultTags(`name:"`+name+`"`),
	))
}

// agentInjectParams Agent 组件注入参数
type agentInjectParams struct {
	fx.In

	Coordinator  *coordinator.Coordinator
	Registry     pkgif.ServiceRegistry
	Store        pkgif.IdentityStore
	Notification pkgif.NotificationChannel
	Bus          pkgif.EventBus
}

// injectAgentComponents 创建 Agent 组件注入函数
func injectAgentComponents(a *Agent) interface{} {
	return func(p agentInjectParams) {
		a.coordinator = p.Coordinator
		a.registry = p.Registry
		a.store = p.Store
		a.notification = p.Notification
		a.bus = p.Bus
	}
}
