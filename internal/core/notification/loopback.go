package notification

import (
	"context"

	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// Loopback 进程内推送通道
//
// 推送方在同一事件总线上发出 EvtPushDelivery，Token 与当前推送身份一致的投递
// 转为 message-received 事件。
type Loopback struct {
	*channel
	sub pkgif.Subscription
}

var _ pkgif.NotificationChannel = (*Loopback)(nil)

// NewLoopback 创建进程内推送通道
func NewLoopback(bus pkgif.EventBus, store pkgif.IdentityStore, buffer int) (*Loopback, error) {
	sub, err := bus.Subscribe(new(types.EvtPushDelivery))
	if err != nil {
		return nil, err
	}
	l := &Loopback{channel: newChannel(store, buffer), sub: sub}

	l.wg.Add(1)
	go l.loop()
	return l, nil
}

func (l *Loopback) loop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case raw, ok := <-l.sub.Out():
			if !ok {
				return
			}
			evt, ok := raw.(types.EvtPushDelivery)
			if !ok {
				continue
			}
			token := l.Token()
			if token == "" || evt.Token != token {
				logger.Debug("忽略非本设备的推送", "token", evt.Token)
				continue
			}
			if !l.deliverSync(types.MessageReceived(evt.Payload)) {
				return
			}
		}
	}
}

// RequestToken 生成推送身份并异步投递 obtained 事件
func (l *Loopback) RequestToken(_ context.Context) error {
	token, err := l.obtain()
	if err != nil {
		return err
	}
	l.deliver(types.IdentityObtained(token))
	return nil
}

// ReleaseToken 清除推送身份并异步投递 revoked 事件
func (l *Loopback) ReleaseToken(_ context.Context) error {
	token, err := l.release()
	if err != nil {
		return err
	}
	if token != "" {
		l.deliver(types.IdentityRevoked(token))
	}
	return nil
}

// Close 关闭推送通道
func (l *Loopback) Close() error {
	l.shutdown(func() { _ = l.sub.Close() })
	return nil
}

// Push 在事件总线上发出一次推送投递
func Push(bus pkgif.EventBus, token string, payload []byte) error {
	em, err := bus.Emitter(new(types.EvtPushDelivery))
	if err != nil {
		return err
	}
	defer em.Close()
	return em.Emit(types.EvtPushDelivery{Token: token, Payload: payload})
}
