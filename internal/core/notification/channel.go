package notification

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dep2p/go-natpeer/pkg/lib/log"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/notification")

// channel 两种推送通道共用的事件投递与 token 持久化
type channel struct {
	store  pkgif.IdentityStore
	events chan types.Event

	mu     sync.Mutex
	token  string
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

func newChannel(store pkgif.IdentityStore, buffer int) *channel {
	if buffer <= 0 {
		buffer = 16
	}
	c := &channel{
		store:  store,
		events: make(chan types.Event, buffer),
		done:   make(chan struct{}),
	}
	if token, ok, err := store.Get(types.KeyPushToken); err != nil {
		logger.Warn("读取推送身份失败", "error", err)
	} else if ok {
		c.token = token
	}
	return c
}

// Events 返回事件通道
func (c *channel) Events() <-chan types.Event {
	return c.events
}

// Token 返回当前推送身份
func (c *channel) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// obtain 生成或复用推送身份并持久化
func (c *channel) obtain() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", types.ErrClosed
	}
	if c.token != "" {
		return c.token, nil
	}
	token := uuid.NewString()
	if err := c.store.Set(types.KeyPushToken, token); err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// release 清除推送身份，返回被清除的值
func (c *channel) release() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", types.ErrClosed
	}
	token := c.token
	if err := c.store.Delete(types.KeyPushToken); err != nil {
		return "", err
	}
	c.token = ""
	return token, nil
}

// deliver 异步投递事件
//
// 调用方可能就是事件的消费者，因此不在调用方 goroutine 上阻塞。
func (c *channel) deliver(ev types.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		select {
		case c.events <- ev:
		case <-c.done:
		}
	}()
}

// deliverSync 在后台读循环中同步投递，保持消息顺序
func (c *channel) deliverSync(ev types.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// shutdown 停止投递并关闭事件通道
//
// 返回 false 表示已经关闭过。
func (c *channel) shutdown(stop func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.wg.Wait()
	close(c.events)
	return true
}
