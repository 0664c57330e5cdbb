package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dep2p/go-natpeer/internal/core/identity"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/coordinator")

// 协调器错误
var (
	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("coordinator already started")
	// ErrNotStarted 尚未启动
	ErrNotStarted = errors.New("coordinator not started")
)

const defaultHistorySize = 64

// Coordinator 连接建立协调器
type Coordinator struct {
	deps        Deps
	onDone      RequestDoneFunc
	bus         pkgif.EventBus
	historySize int

	stateEm pkgif.Emitter
	doneEm  pkgif.Emitter

	mu         sync.Mutex
	state      types.DeviceState
	generation uint64
	history    []types.RequestOutcome
	started    bool
	stopped    bool

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	loopDone chan struct{}
}

var _ pkgif.Coordinator = (*Coordinator)(nil)

// New 创建协调器
func New(deps Deps, opts ...Option) (*Coordinator, error) {
	if deps.Store == nil || deps.Directory == nil || deps.Registry == nil ||
		deps.Rendezvous == nil || deps.Injector == nil || deps.Notification == nil {
		return nil, errors.New("coordinator: missing dependency")
	}
	c := &Coordinator{
		deps:        deps,
		historySize: defaultHistorySize,
		state:       types.StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.deps.LocalAddr == nil {
		return nil, errors.New("coordinator: missing local address resolver")
	}
	if c.bus != nil {
		var err error
		if c.stateEm, err = c.bus.Emitter(new(types.EvtDeviceStateChanged)); err != nil {
			return nil, fmt.Errorf("coordinator: state emitter: %w", err)
		}
		if c.doneEm, err = c.bus.Emitter(new(types.EvtRequestDone)); err != nil {
			_ = c.stateEm.Close()
			return nil, fmt.Errorf("coordinator: outcome emitter: %w", err)
		}
	}
	return c, nil
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 开始消费推送事件并检查推送身份
//
// 没有本地推送身份时申请一个并进入 AwaitingDirectoryRegistration；
// 已有身份时按"获得身份"处理，未经目录确认的身份直接向目录注册。
func (c *Coordinator) Start(_ context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.loopDone = make(chan struct{})
	c.mu.Unlock()

	go c.loop()

	if token := c.deps.Notification.Token(); token != "" {
		logger.Info("已有推送身份", "token", token)
		c.onIdentityObtained(token)
		return nil
	}

	c.setState(types.StateAwaitingDirectoryRegistration)
	c.spawn(func(ctx context.Context) {
		if err := c.deps.Notification.RequestToken(ctx); err != nil {
			logger.Warn("申请推送身份失败", "error", err)
			c.setState(types.StateIdle)
		}
	})
	return nil
}

// Stop 取消进行中的任务并等待结束
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return ErrNotStarted
	}
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.cancel()
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		<-c.loopDone
		c.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("coordinator: stop: %w", ctx.Err())
	}

	if c.stateEm != nil {
		_ = c.stateEm.Close()
	}
	if c.doneEm != nil {
		_ = c.doneEm.Close()
	}
	logger.Info("协调器已停止")
	return err
}

// spawn 在协调器上下文中启动独立任务，停止后不再启动
func (c *Coordinator) spawn(fn func(ctx context.Context)) bool {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	ctx := c.ctx
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		fn(ctx)
	}()
	return true
}

// loop 串行消费推送事件，耗时操作都交给独立任务
func (c *Coordinator) loop() {
	defer close(c.loopDone)
	events := c.deps.Notification.Events()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				logger.Debug("推送通道已关闭")
				return
			}
			c.dispatch(ev)
		}
	}
}

func (c *Coordinator) dispatch(ev types.Event) {
	switch ev.Kind {
	case types.EventPushIdentityObtained:
		c.onIdentityObtained(ev.Token)
	case types.EventPushIdentityRevoked:
		c.onIdentityRevoked(ev.Token)
	case types.EventMessageReceived:
		c.onMessage(ev.Payload)
	default:
		logger.Warn("未知推送事件", "kind", ev.Kind)
	}
}

// ============================================================================
//                              设备级状态
// ============================================================================

// State 返回设备级状态
func (c *Coordinator) State() types.DeviceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Device 返回设备注册状态快照
func (c *Coordinator) Device() types.Device {
	id, err := identity.DeviceID(c.deps.Store)
	if err != nil {
		logger.Warn("读取设备 ID 失败", "error", err)
	}
	return types.Device{
		Identity:                id,
		RegisteredWithDirectory: identity.RegisteredOnServer(c.deps.Store),
		RegisteredWithPush:      c.deps.Notification.Token() != "",
	}
}

// Outcomes 返回最近完成的连接请求，按完成顺序
func (c *Coordinator) Outcomes() []types.RequestOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.RequestOutcome(nil), c.history...)
}

// nextGeneration 开始新一轮注册 / 注销，使之前的任务结果失效
func (c *Coordinator) nextGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

func (c *Coordinator) setState(s types.DeviceState) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()
	c.emitState(old, s)
}

// setStateIf 仅当 gen 仍是最新一代时更新状态
func (c *Coordinator) setStateIf(gen uint64, s types.DeviceState) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	old := c.state
	c.state = s
	c.mu.Unlock()
	c.emitState(old, s)
	return true
}

// isCurrent 检查 gen 是否仍是最新一代
func (c *Coordinator) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

func (c *Coordinator) emitState(old, s types.DeviceState) {
	if old == s {
		return
	}
	logger.Info("设备状态变更", "from", old, "state", s)
	if c.stateEm != nil {
		_ = c.stateEm.Emit(types.EvtDeviceStateChanged{Old: old, New: s})
	}
}

// onIdentityObtained 处理推送身份获得
//
// 目录已确认过的身份直接进入 Registered，否则向目录注册设备。
// 注册失败时释放推送身份并回到 Idle，下次可以申请新的身份。
func (c *Coordinator) onIdentityObtained(token string) {
	gen := c.nextGeneration()

	if id, _ := identity.DeviceID(c.deps.Store); id != "" && identity.RegisteredOnServer(c.deps.Store) {
		c.setStateIf(gen, types.StateRegistered)
		return
	}
	c.setStateIf(gen, types.StateAwaitingDirectoryRegistration)

	c.spawn(func(ctx context.Context) {
		id, err := c.deps.Directory.RegisterDevice(ctx, token)
		if !c.isCurrent(gen) {
			logger.Debug("丢弃过期的设备注册结果", "token", token)
			return
		}
		if err != nil {
			logger.Warn("设备注册失败", "error", err)
			if relErr := c.deps.Notification.ReleaseToken(ctx); relErr != nil {
				logger.Warn("释放推送身份失败", "error", relErr)
			}
			c.setStateIf(gen, types.StateIdle)
			return
		}
		if err := c.deps.Store.Set(types.KeyDeviceID, id); err != nil {
			logger.Error("保存设备 ID 失败", "error", err)
			c.setStateIf(gen, types.StateIdle)
			return
		}
		if err := identity.SetRegisteredOnServer(c.deps.Store, true); err != nil {
			logger.Error("保存注册确认失败", "error", err)
			c.setStateIf(gen, types.StateIdle)
			return
		}
		logger.Info("设备已注册", "device", id)
		c.setStateIf(gen, types.StateRegistered)
	})
}

// onIdentityRevoked 处理推送身份撤销
//
// 确认标记先于目录注销清除，注销失败不影响本地状态。
func (c *Coordinator) onIdentityRevoked(token string) {
	if c.State() != types.StateRegistered {
		logger.Debug("非注册状态下的身份撤销", "token", token, "state", c.State())
		return
	}
	gen := c.nextGeneration()
	confirmed := identity.RegisteredOnServer(c.deps.Store)
	id, _ := identity.DeviceID(c.deps.Store)

	if err := identity.SetRegisteredOnServer(c.deps.Store, false); err != nil {
		logger.Error("清除注册确认失败", "error", err)
	}
	c.setStateIf(gen, types.StateIdle)

	if !confirmed || id == "" {
		return
	}
	c.spawn(func(ctx context.Context) {
		if err := c.deps.Directory.UnregisterDevice(ctx, id); err != nil {
			logger.Warn("设备注销失败", "device", id, "error", err)
			return
		}
		logger.Info("设备已注销", "device", id)
	})
}

// onMessage 处理推送消息，只在 Registered 状态下受理连接请求
func (c *Coordinator) onMessage(payload []byte) {
	if s := c.State(); s != types.StateRegistered {
		logger.Debug("未注册，忽略推送消息", "state", s)
		return
	}
	req, ok, err := types.ConnectionRequestFrom(payload)
	if err != nil {
		logger.Warn("无效推送消息", "error", err)
		return
	}
	if !ok {
		logger.Debug("忽略非连接请求消息")
		return
	}
	logger.Info("收到连接请求", "request", req.RequestID, "service", req.ServiceName)

	received := time.Now()
	c.spawn(func(ctx context.Context) {
		c.finish(c.handleRequest(ctx, req, received))
	})
}

// ============================================================================
//                              连接请求
// ============================================================================

// handleRequest 执行一个连接请求，返回终态记录
//
// 只有会合结果校验通过且服务已知时才交给注入原语，否则不产生任何副作用。
func (c *Coordinator) handleRequest(ctx context.Context, req types.ConnectionRequest, received time.Time) types.RequestOutcome {
	out := types.RequestOutcome{
		Request:   req,
		State:     types.RequestReceived,
		StartedAt: received,
	}
	fail := func(err error) types.RequestOutcome {
		out.State = types.RequestFailed
		out.Err = err
		out.FinishedAt = time.Now()
		logger.Warn("连接请求失败", "request", req.RequestID, "service", req.ServiceName, "error", err)
		return out
	}

	policy, err := identity.NatPolicy(c.deps.Store)
	if err != nil {
		logger.Warn("读取 NAT 策略失败，按 NAT 之后处理", "error", err)
	}
	out.BehindNAT = policy.BehindNAT()

	out.State = types.RendezvousInFlight
	logger.Debug("开始会合交换", "request", req.RequestID, "nat", out.BehindNAT, "policy", policy)

	ex, err := c.deps.Rendezvous.Respond(ctx, req.RequestID, out.BehindNAT)
	if err != nil {
		return fail(err)
	}
	resp, err := ex.Response()
	if err != nil {
		return fail(err)
	}
	out.Response = &resp

	svc, ok := c.deps.Registry.FindByName(req.ServiceName)
	if !ok {
		return fail(fmt.Errorf("%w: %s", types.ErrNotFound, req.ServiceName))
	}

	localAddr, iface, err := c.deps.LocalAddr()
	if err != nil {
		return fail(err)
	}

	params := types.InjectionParams{
		LocalAddress:  localAddr,
		LocalPort:     svc.LocalPort,
		Interface:     iface,
		RemoteAddress: resp.PeerAddress,
		RemotePort:    resp.PeerPort,
		InitialSeq:    resp.InitialSeq,
		Timestamp:     resp.Timestamp,
		BehindNAT:     out.BehindNAT,
	}
	out.State = types.RequestEstablished
	logger.Info("连接请求已建立", "request", req.RequestID, "service", svc.Name, "peer", resp.PeerAddr())

	// 注入结果不影响请求终态
	if err := c.deps.Injector.Inject(ctx, params); err != nil {
		logger.Warn("注入失败", "request", req.RequestID, "params", params.String(), "error", err)
		out.Err = err
	}
	out.FinishedAt = time.Now()
	return out
}

// finish 记录终态并通知观察者
func (c *Coordinator) finish(out types.RequestOutcome) {
	if c.historySize > 0 {
		c.mu.Lock()
		c.history = append(c.history, out)
		if over := len(c.history) - c.historySize; over > 0 {
			c.history = append(c.history[:0:0], c.history[over:]...)
		}
		c.mu.Unlock()
	}
	if c.doneEm != nil {
		_ = c.doneEm.Emit(types.EvtRequestDone{Outcome: out})
	}
	if c.onDone != nil {
		c.onDone(out)
	}
}
