package rendezvous

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Config   *config.Config         `optional:"true"`
	Override pkgif.RendezvousClient `name:"rendezvous_override" optional:"true"`
}

// Module 返回 rendezvous Fx 模块
func Module() fx.Option {
	return fx.Module("rendezvous",
		fx.Provide(ProvideClient),
	)
}

// ProvideClient 提供 RendezvousClient
func ProvideClient(p Params) pkgif.RendezvousClient {
	if p.Override != nil {
		return p.Override
	}
	cfg := config.DefaultRendezvousConfig()
	if p.Config != nil {
		cfg = p.Config.Rendezvous
	}
	return New(cfg)
}

var (
	_ pkgif.RendezvousClient = (*Client)(nil)
	_ pkgif.Requester        = (*Requester)(nil)
)
