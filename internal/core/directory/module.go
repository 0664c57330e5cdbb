package directory

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Config   *config.Config        `optional:"true"`
	Override pkgif.DirectoryClient `name:"directory_override" optional:"true"`
}

// Module 返回 directory Fx 模块
func Module() fx.Option {
	return fx.Module("directory",
		fx.Provide(ProvideClient),
	)
}

// ProvideClient 提供 DirectoryClient
func ProvideClient(lc fx.Lifecycle, p Params) pkgif.DirectoryClient {
	if p.Override != nil {
		return p.Override
	}
	cfg := config.DefaultDirectoryConfig()
	if p.Config != nil {
		cfg = p.Config.Directory
	}
	c := New(cfg)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return c
}
