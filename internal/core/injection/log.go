package injection

import (
	"context"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// LogInjector 只记录交接参数
type LogInjector struct{}

// NewLogInjector 创建 LogInjector
func NewLogInjector() *LogInjector {
	return &LogInjector{}
}

// Inject 记录注入参数
func (*LogInjector) Inject(_ context.Context, p types.InjectionParams) error {
	logger.Info("注入交接（演练）",
		"local", p.LocalAddress,
		"localPort", p.LocalPort,
		"interface", p.Interface,
		"peer", p.RemoteAddress,
		"peerPort", p.RemotePort,
		"isn", p.InitialSeq,
		"tsVal", p.Timestamp,
		"nat", p.BehindNAT)
	return nil
}
