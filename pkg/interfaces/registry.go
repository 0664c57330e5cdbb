package interfaces

import (
	"context"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// ServiceRegistry 本地暴露服务的注册表
//
// 同名服务的 Add/Remove 串行执行，不同服务名可并发。
// 所有变更先经目录服务确认，再更新内存。
type ServiceRegistry interface {
	// Add 注册服务
	//
	// 设备未注册时返回 types.ErrNotRegistered，同名服务已存在时返回 types.ErrAlreadyExists。
	Add(ctx context.Context, name string, localPort uint16) (types.ExposedService, error)

	// Remove 注销服务
	//
	// 服务不存在时返回 types.ErrNotFound；目录服务拒绝时条目保留。
	Remove(ctx context.Context, name string) error

	// FindByName 纯查询
	FindByName(name string) (types.ExposedService, bool)

	// Services 返回当前所有服务（按名称排序）
	Services() []types.ExposedService

	// Shutdown 尽力注销全部服务，单个失败不影响其余条目
	Shutdown(ctx context.Context) error
}
