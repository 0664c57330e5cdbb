package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

func recv(t *testing.T, sub pkgif.Subscription) interface{} {
	t.Helper()
	select {
	case ev, ok := <-sub.Out():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

// ============================================================================
//                              基础功能测试
// ============================================================================

func TestBus_SubscribeEmit(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub, err := bus.Subscribe(new(types.EvtRequestDone))
	require.NoError(t, err)
	defer sub.Close()

	em, err := bus.Emitter(new(types.EvtRequestDone))
	require.NoError(t, err)
	defer em.Close()

	out := types.RequestOutcome{Request: types.ConnectionRequest{RequestID: "R1"}, State: types.RequestFailed}
	require.NoError(t, em.Emit(types.EvtRequestDone{Outcome: out}))

	ev := recv(t, sub).(types.EvtRequestDone)
	assert.Equal(t, "R1", ev.Outcome.Request.RequestID)
}

func TestBus_TypeRouting(t *testing.T) {
	bus := NewBus()

	subA, err := bus.Subscribe(new(types.EvtPushDelivery))
	require.NoError(t, err)
	subB, err := bus.Subscribe(new(types.EvtDeviceStateChanged))
	require.NoError(t, err)

	em, err := bus.Emitter(new(types.EvtPushDelivery))
	require.NoError(t, err)
	require.NoError(t, em.Emit(types.EvtPushDelivery{Token: "tok1"}))

	assert.Equal(t, "tok1", recv(t, subA).(types.EvtPushDelivery).Token)
	select {
	case ev := <-subB.Out():
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestBus_NonPointerType(t *testing.T) {
	bus := NewBus()
	_, err := bus.Subscribe(types.EvtPushDelivery{})
	assert.ErrorIs(t, err, ErrNonPointerType)
	_, err = bus.Emitter(nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestBus_StatefulEmitter(t *testing.T) {
	bus := NewBus()

	em, err := bus.Emitter(new(types.EvtDeviceStateChanged), Stateful())
	require.NoError(t, err)
	require.NoError(t, em.Emit(types.EvtDeviceStateChanged{New: types.StateRegistered}))

	// 后订阅者立即收到最近一次事件
	sub, err := bus.Subscribe(new(types.EvtDeviceStateChanged))
	require.NoError(t, err)
	assert.Equal(t, types.StateRegistered, recv(t, sub).(types.EvtDeviceStateChanged).New)
}

func TestBus_SlowConsumerDrops(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtPushDelivery), BufSize(1))
	require.NoError(t, err)
	em, err := bus.Emitter(new(types.EvtPushDelivery))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, em.Emit(types.EvtPushDelivery{}))
	}
	assert.Equal(t, int64(4), bus.Dropped(new(types.EvtPushDelivery)))
	_ = sub.Close()
}

func TestBus_CloseClosesSubscriptions(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe(new(types.EvtPushDelivery))
	require.NoError(t, err)

	require.NoError(t, bus.Close())
	_, ok := <-sub.Out()
	assert.False(t, ok)

	_, err = bus.Subscribe(new(types.EvtPushDelivery))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, sub.Close(), "重复关闭不报错")
}

func TestEmitter_Closed(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(types.EvtPushDelivery))
	require.NoError(t, err)
	require.NoError(t, em.Close())
	assert.ErrorIs(t, em.Emit(types.EvtPushDelivery{}), ErrClosed)
}

// ============================================================================
//                              并发测试
// ============================================================================

func TestBus_ConcurrentSubscribeClose(t *testing.T) {
	bus := NewBus()
	em, err := bus.Emitter(new(types.EvtPushDelivery))
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				_ = em.Emit(types.EvtPushDelivery{Token: "t"})
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := bus.Subscribe(new(types.EvtPushDelivery), BufSize(2))
			if err != nil {
				return
			}
			time.Sleep(time.Millisecond)
			_ = sub.Close()
		}()
	}
	wg.Wait()
	close(stop)
}

// ============================================================================
//                              Fx 模块测试
// ============================================================================

func TestModule(t *testing.T) {
	var bus pkgif.EventBus
	app := fxtest.New(t,
		fx.NopLogger,
		Module(),
		fx.Populate(&bus),
	)
	app.RequireStart()
	require.NotNil(t, bus)

	sub, err := bus.Subscribe(new(types.EvtPushDelivery))
	require.NoError(t, err)
	app.RequireStop()

	_, ok := <-sub.Out()
	assert.False(t, ok, "停止时关闭所有订阅")
}
