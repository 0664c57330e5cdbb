package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/types"
	"github.com/dep2p/go-natpeer/tests/mocks"
)

// pushServer 测试用推送中心，连接建立后写出 frames
func pushServer(t *testing.T, frames []string) (*httptest.Server, <-chan string) {
	t.Helper()
	tokens := make(chan string, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/push" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		tokens <- r.URL.Query().Get("token")
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// 保持连接直到客户端断开
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, tokens
}

func wsConfig(srv *httptest.Server) config.NotificationConfig {
	cfg := config.DefaultNotificationConfig()
	cfg.Mode = config.NotificationWebSocket
	cfg.PushURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/push"
	cfg.HandshakeTimeout = config.Duration(2 * time.Second)
	return cfg
}

func TestWebSocket_ReceivesFrames(t *testing.T) {
	srv, tokens := pushServer(t, []string{
		`{"message":"{\"gcm_event\":\"request\",\"id\":\"R1\",\"service\":\"ssh\"}"}`,
		`not json`,
		`{"message":""}`,
		`{"message":"{\"gcm_event\":\"other\"}"}`,
	})

	ws := NewWebSocket(wsConfig(srv), mocks.NewMockIdentityStore(nil))
	defer ws.Close()

	require.NoError(t, ws.RequestToken(context.Background()))

	var token string
	select {
	case token = <-tokens:
	case <-time.After(2 * time.Second):
		t.Fatal("push server not contacted")
	}
	assert.Equal(t, ws.Token(), token)

	// obtained 事件与消息事件异步到达，顺序不定
	var kinds []types.EventKind
	var payloads []string
	for i := 0; i < 3; i++ {
		ev := nextEvent(t, ws.Events())
		kinds = append(kinds, ev.Kind)
		if ev.Kind == types.EventMessageReceived {
			payloads = append(payloads, string(ev.Payload))
		}
	}
	assert.Contains(t, kinds, types.EventPushIdentityObtained)
	assert.Equal(t, []string{
		`{"gcm_event":"request","id":"R1","service":"ssh"}`,
		`{"gcm_event":"other"}`,
	}, payloads)
}

func TestWebSocket_StartWithStoredToken(t *testing.T) {
	srv, tokens := pushServer(t, nil)
	store := mocks.NewMockIdentityStore(map[string]string{types.KeyPushToken: "tok1"})

	ws := NewWebSocket(wsConfig(srv), store)
	defer ws.Close()
	require.NoError(t, ws.Start(context.Background()))

	select {
	case token := <-tokens:
		assert.Equal(t, "tok1", token)
	case <-time.After(2 * time.Second):
		t.Fatal("push server not contacted")
	}
}

func TestWebSocket_ReleaseToken(t *testing.T) {
	srv, tokens := pushServer(t, nil)
	store := mocks.NewMockIdentityStore(map[string]string{types.KeyPushToken: "tok1"})

	ws := NewWebSocket(wsConfig(srv), store)
	defer ws.Close()
	require.NoError(t, ws.Start(context.Background()))
	<-tokens

	require.NoError(t, ws.ReleaseToken(context.Background()))
	ev := nextEvent(t, ws.Events())
	assert.Equal(t, types.EventPushIdentityRevoked, ev.Kind)
	assert.Equal(t, "tok1", ev.Token)
	assert.Empty(t, ws.Token())
	assert.Empty(t, store.Value(types.KeyPushToken))
}

func TestWebSocket_Endpoint(t *testing.T) {
	cfg := config.DefaultNotificationConfig()
	cfg.PushURL = "ws://push.example.org:8000/push?v=1"
	ws := NewWebSocket(cfg, mocks.NewMockIdentityStore(nil))
	defer ws.Close()

	u, err := ws.endpoint("a b")
	require.NoError(t, err)
	assert.Equal(t, "ws://push.example.org:8000/push?token=a+b&v=1", u)
}

func TestReconnectBackOff(t *testing.T) {
	bo := newReconnectBackOff()

	first := bo.NextBackOff()
	assert.GreaterOrEqual(t, first, 800*time.Millisecond)
	assert.LessOrEqual(t, first, 1200*time.Millisecond)

	for i := 0; i < 20; i++ {
		d := bo.NextBackOff()
		assert.LessOrEqual(t, d, maxReconnectDelay+maxReconnectDelay/5)
	}

	bo.Reset()
	again := bo.NextBackOff()
	assert.GreaterOrEqual(t, again, 800*time.Millisecond)
	assert.LessOrEqual(t, again, 1200*time.Millisecond)
}

func TestWebSocket_ReconnectsAfterDrop(t *testing.T) {
	attempts := make(chan int32, 4)
	var n atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		cur := n.Add(1)
		attempts <- cur
		if cur == 1 {
			// 首次连接立即断开
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	store := mocks.NewMockIdentityStore(map[string]string{types.KeyPushToken: "tok1"})
	ws := NewWebSocket(wsConfig(srv), store)
	defer ws.Close()
	require.NoError(t, ws.Start(context.Background()))

	for want := int32(1); want <= 2; want++ {
		select {
		case got := <-attempts:
			assert.Equal(t, want, got)
		case <-time.After(3 * time.Second):
			t.Fatalf("connection attempt %d not seen", want)
		}
	}
}
