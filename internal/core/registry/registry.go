package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dep2p/go-natpeer/internal/core/identity"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/registry")

// Registry 服务注册表
type Registry struct {
	directory pkgif.DirectoryClient
	store     pkgif.IdentityStore

	mu       sync.RWMutex
	services map[string]types.ExposedService

	names *keyLock

	// gate Add 在远端调用与内存更新期间持有读锁，Shutdown 以写锁关闭
	gate   sync.RWMutex
	closed bool
}

var _ pkgif.ServiceRegistry = (*Registry)(nil)

// New 创建服务注册表
func New(directory pkgif.DirectoryClient, store pkgif.IdentityStore) *Registry {
	return &Registry{
		directory: directory,
		store:     store,
		services:  make(map[string]types.ExposedService),
		names:     newKeyLock(),
	}
}

// deviceID 返回可用于注册服务的设备 ID
func (r *Registry) deviceID() (string, error) {
	id, err := identity.DeviceID(r.store)
	if err != nil {
		return "", err
	}
	device := types.Device{
		Identity:                id,
		RegisteredWithDirectory: identity.RegisteredOnServer(r.store),
	}
	if !device.CanRegisterServices() {
		return "", types.ErrNotRegistered
	}
	return id, nil
}

// Add 注册服务
func (r *Registry) Add(ctx context.Context, name string, localPort uint16) (types.ExposedService, error) {
	if err := types.ValidateService(name, localPort); err != nil {
		return types.ExposedService{}, err
	}

	r.gate.RLock()
	defer r.gate.RUnlock()
	if r.closed {
		return types.ExposedService{}, types.ErrClosed
	}

	unlock := r.names.Lock(name)
	defer unlock()

	if _, ok := r.FindByName(name); ok {
		return types.ExposedService{}, fmt.Errorf("%w: %s", types.ErrAlreadyExists, name)
	}

	deviceID, err := r.deviceID()
	if err != nil {
		return types.ExposedService{}, err
	}

	remoteID, err := r.directory.RegisterService(ctx, name, deviceID)
	if err != nil {
		return types.ExposedService{}, fmt.Errorf("register service %s: %w", name, err)
	}

	svc := types.ExposedService{Name: name, LocalPort: localPort, RemoteID: remoteID}
	r.mu.Lock()
	r.services[name] = svc
	r.mu.Unlock()

	logger.Info("服务已暴露", "service", name, "port", localPort, "remote_id", remoteID)
	return svc, nil
}

// Remove 注销服务
func (r *Registry) Remove(ctx context.Context, name string) error {
	unlock := r.names.Lock(name)
	defer unlock()
	return r.removeLocked(ctx, name)
}

// removeLocked 调用方已持有 name 的锁
func (r *Registry) removeLocked(ctx context.Context, name string) error {
	svc, ok := r.FindByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrNotFound, name)
	}

	if err := r.directory.UnregisterService(ctx, svc.RemoteID); err != nil {
		return fmt.Errorf("unregister service %s: %w", name, err)
	}

	r.mu.Lock()
	delete(r.services, name)
	r.mu.Unlock()

	logger.Info("服务已移除", "service", name)
	return nil
}

// FindByName 查找服务
func (r *Registry) FindByName(name string) (types.ExposedService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[name]
	return svc, ok
}

// Services 返回所有服务，按名称排序
func (r *Registry) Services() []types.ExposedService {
	r.mu.RLock()
	out := make([]types.ExposedService, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len 服务数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// Shutdown 尽力注销全部服务
//
// 先等待进行中的 Add 完成，关闭后 Add 返回 ErrClosed。
// 每个条目都会尝试一次，返回所有失败的合并错误。
func (r *Registry) Shutdown(ctx context.Context) error {
	r.gate.Lock()
	r.closed = true
	r.gate.Unlock()

	var errs []error
	for _, svc := range r.Services() {
		unlock := r.names.Lock(svc.Name)
		err := r.removeLocked(ctx, svc.Name)
		unlock()

		if err != nil && !errors.Is(err, types.ErrNotFound) {
			logger.Warn("服务注销失败，继续处理其余服务", "service", svc.Name, "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		logger.Warn("注册表关闭完成，部分服务未注销", "failed", len(errs), "remaining", r.Len())
	} else {
		logger.Info("注册表关闭完成")
	}
	return errors.Join(errs...)
}
