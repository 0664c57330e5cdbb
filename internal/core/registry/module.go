package registry

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Result 模块输出
type Result struct {
	fx.Out

	Registry        *Registry
	ServiceRegistry pkgif.ServiceRegistry
}

// Module 返回 registry Fx 模块
//
// OnStop 时执行 Shutdown，尽力注销全部服务。
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideRegistry),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 提供服务注册表
func ProvideRegistry(directory pkgif.DirectoryClient, store pkgif.IdentityStore) Result {
	r := New(directory, store)
	return Result{Registry: r, ServiceRegistry: r}
}

func registerLifecycle(lc fx.Lifecycle, r *Registry) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// 单个服务注销失败不阻止进程退出
			_ = r.Shutdown(ctx)
			return nil
		},
	})
}
