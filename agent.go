package natpeer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/internal/core/coordinator"
	"github.com/dep2p/go-natpeer/internal/core/identity"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("natpeer")

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// startTimeout Fx App 启动超时
	startTimeout = 30 * time.Second

	// stopTimeout Fx App 停止超时，包含服务注销的尽力排空
	stopTimeout = 30 * time.Second
)

// Agent 设备侧代理
//
// Agent 持有推送身份、目录注册与本地服务表，并在收到连接请求时完成会合交换
// 与注入。所有方法并发安全。
type Agent struct {
	app *fx.App

	coordinator  *coordinator.Coordinator
	registry     pkgif.ServiceRegistry
	store        pkgif.IdentityStore
	notification pkgif.NotificationChannel
	bus          pkgif.EventBus

	mu      sync.Mutex
	started bool
	closed  bool
}

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建 Agent
//
// 创建但不启动，需要调用 Start。
func New(opts ...Option) (*Agent, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	a := &Agent{}
	app, err := buildFxApp(o, a)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	a.app = app
	return a, nil
}

// Start 启动 Agent
//
// 启动后协调器读取推送身份：已有身份时直接向目录注册，否则先申请身份。
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrAgentClosed
	}
	if a.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := a.app.Start(startCtx); err != nil {
		logger.Error("Agent 启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}
	a.started = true
	logger.Info("Agent 已启动", "version", Version)
	return nil
}

// Close 关闭 Agent
//
// 取消进行中的会合交换，尽力注销全部服务后关闭存储。可重复调用。
func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if !a.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := a.app.Stop(ctx); err != nil {
		logger.Warn("Agent 关闭出错", "error", err)
		return err
	}
	logger.Info("Agent 已关闭")
	return nil
}

func (a *Agent) checkRunning() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.closed:
		return ErrAgentClosed
	case !a.started:
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              服务管理
// ════════════════════════════════════════════════════════════════════════════

// AddService 暴露本地服务
//
// 目录服务确认后才写入本地服务表；设备未注册时返回 ErrNotRegistered。
func (a *Agent) AddService(ctx context.Context, name string, localPort uint16) (types.ExposedService, error) {
	if err := a.checkRunning(); err != nil {
		return types.ExposedService{}, err
	}
	return a.registry.Add(ctx, name, localPort)
}

// RemoveService 撤销已暴露的服务
func (a *Agent) RemoveService(ctx context.Context, name string) error {
	if err := a.checkRunning(); err != nil {
		return err
	}
	return a.registry.Remove(ctx, name)
}

// Services 返回已暴露的服务
func (a *Agent) Services() []types.ExposedService {
	if a.registry == nil {
		return nil
	}
	return a.registry.Services()
}

// ════════════════════════════════════════════════════════════════════════════
//                              NAT 策略
// ════════════════════════════════════════════════════════════════════════════

// SetNATPolicy 设置设备是否位于 NAT 之后
func (a *Agent) SetNATPolicy(behindNAT bool) error {
	if a.store == nil {
		return ErrNotStarted
	}
	return identity.SetNatPolicy(a.store, types.NatPolicyFromBool(behindNAT))
}

// ClearNATPolicy 清除 NAT 策略，之后按位于 NAT 之后处理
func (a *Agent) ClearNATPolicy() error {
	if a.store == nil {
		return ErrNotStarted
	}
	return identity.SetNatPolicy(a.store, types.NatPolicyUnconfigured)
}

// NATPolicy 返回当前 NAT 策略
func (a *Agent) NATPolicy() (types.NatPolicy, error) {
	if a.store == nil {
		return types.NatPolicyUnconfigured, ErrNotStarted
	}
	return identity.NatPolicy(a.store)
}

// ════════════════════════════════════════════════════════════════════════════
//                              设备注册
// ════════════════════════════════════════════════════════════════════════════

// Unregister 释放推送身份
//
// 推送通道随后产生 revoked 事件，协调器据此向目录注销设备。
func (a *Agent) Unregister(ctx context.Context) error {
	if err := a.checkRunning(); err != nil {
		return err
	}
	return a.notification.ReleaseToken(ctx)
}

// WaitRegistered 等待设备进入 Registered 状态
//
// 先订阅状态变更再读取当前状态，订阅前已完成的注册不会被错过。
func (a *Agent) WaitRegistered(ctx context.Context) error {
	if err := a.checkRunning(); err != nil {
		return err
	}
	sub, err := a.bus.Subscribe(new(types.EvtDeviceStateChanged))
	if err != nil {
		return fmt.Errorf("subscribe state changes: %w", err)
	}
	defer sub.Close()

	if a.coordinator.State() == types.StateRegistered {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-sub.Out():
			if !ok {
				return ErrAgentClosed
			}
			// 总线满时会丢事件，收到任意变更都以当前状态为准
			if evt, _ := raw.(types.EvtDeviceStateChanged); evt.New == types.StateRegistered ||
				a.coordinator.State() == types.StateRegistered {
				return nil
			}
		}
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              状态查询
// ════════════════════════════════════════════════════════════════════════════

// State 返回设备级状态
func (a *Agent) State() types.DeviceState {
	if a.coordinator == nil {
		return types.StateIdle
	}
	return a.coordinator.State()
}

// Device 返回设备注册信息
func (a *Agent) Device() types.Device {
	if a.coordinator == nil {
		return types.Device{}
	}
	return a.coordinator.Device()
}

// Outcomes 返回最近完成的连接请求
func (a *Agent) Outcomes() []types.RequestOutcome {
	if a.coordinator == nil {
		return nil
	}
	return a.coordinator.Outcomes()
}

// EventBus 返回事件总线
//
// 可订阅 types.EvtDeviceStateChanged 与 types.EvtRequestDone。
func (a *Agent) EventBus() pkgif.EventBus {
	return a.bus
}
