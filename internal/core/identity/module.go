package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/internal/core/storage"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Engine storage.Engine
	// Override 外部提供的 IdentityStore，优先于内置实现
	Override pkgif.IdentityStore `name:"identity_override" optional:"true"`
}

// Module 返回 identity Fx 模块
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideStore),
	)
}

// ProvideStore 提供 IdentityStore
func ProvideStore(p Params) pkgif.IdentityStore {
	if p.Override != nil {
		return p.Override
	}
	return NewStore(p.Engine)
}
