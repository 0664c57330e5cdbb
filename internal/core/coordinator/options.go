package coordinator

import (
	"github.com/dep2p/go-natpeer/internal/core/injection"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// RequestDoneFunc 连接请求到达终态时的回调
type RequestDoneFunc func(types.RequestOutcome)

// Deps 协调器依赖
type Deps struct {
	Store        pkgif.IdentityStore
	Directory    pkgif.DirectoryClient
	Registry     pkgif.ServiceRegistry
	Rendezvous   pkgif.RendezvousClient
	Injector     pkgif.InjectionPort
	Notification pkgif.NotificationChannel
	LocalAddr    injection.LocalAddrFunc
}

// Option 协调器选项
type Option func(*Coordinator)

// WithOnRequestDone 设置请求完成回调
//
// 回调在请求所在的 goroutine 中同步执行，不应长时间阻塞。
func WithOnRequestDone(fn RequestDoneFunc) Option {
	return func(c *Coordinator) { c.onDone = fn }
}

// WithEventBus 在事件总线上发布状态变更与请求完成事件
func WithEventBus(bus pkgif.EventBus) Option {
	return func(c *Coordinator) { c.bus = bus }
}

// WithHistorySize 设置保留的已完成请求数，0 表示不保留
func WithHistorySize(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.historySize = n
		}
	}
}
