package injection

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
)

// Params 模块输入
type Params struct {
	fx.In

	Config   *config.Config      `optional:"true"`
	Override pkgif.InjectionPort `name:"injector_override" optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Port      pkgif.InjectionPort
	LocalAddr LocalAddrFunc
}

// Module 返回 injection Fx 模块
func Module() fx.Option {
	return fx.Module("injection",
		fx.Provide(Provide),
	)
}

// Provide 提供 InjectionPort 与本地地址解析
func Provide(p Params) Result {
	cfg := config.DefaultInjectionConfig()
	if p.Config != nil {
		cfg = p.Config.Injection
	}
	return Result{
		Port:      selectPort(cfg, p.Override),
		LocalAddr: NewLocalAddrFunc(cfg),
	}
}

func selectPort(cfg config.InjectionConfig, override pkgif.InjectionPort) pkgif.InjectionPort {
	if override != nil {
		return override
	}
	if cfg.Mode == config.InjectionLog {
		return NewLogInjector()
	}
	return NewExecInjector(cfg)
}

var (
	_ pkgif.InjectionPort = (*ExecInjector)(nil)
	_ pkgif.InjectionPort = (*LogInjector)(nil)
)
