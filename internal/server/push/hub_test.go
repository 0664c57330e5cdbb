package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/internal/core/notification"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	router := mux.NewRouter()
	hub.Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/push"
}

func connect(t *testing.T, hub *Hub, url, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.Online(token) > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_PushDeliversFrame(t *testing.T) {
	hub, url := startHub(t)
	conn := connect(t, hub, url, "tok1")

	payload := []byte(`{"gcm_event":"request","id":"req7","service":"ssh"}`)
	require.NoError(t, hub.Push(context.Background(), "tok1", payload))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame notification.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.JSONEq(t, string(payload), frame.Message)
}

func TestHub_NoSubscriber(t *testing.T) {
	hub, url := startHub(t)
	connect(t, hub, url, "tok1")

	err := hub.Push(context.Background(), "other", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNoSubscriber)
}

func TestHub_DisconnectRemovesSubscriber(t *testing.T) {
	hub, url := startHub(t)
	conn := connect(t, hub, url, "tok1")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Online("tok1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_MultipleConnections(t *testing.T) {
	hub, url := startHub(t)
	a := connect(t, hub, url, "tok1")
	b := connect(t, hub, url, "tok1")
	require.Eventually(t, func() bool { return hub.Online("tok1") == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Push(context.Background(), "tok1", []byte(`{"x":1}`)))
	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame notification.Frame
		require.NoError(t, c.ReadJSON(&frame))
		assert.Equal(t, `{"x":1}`, frame.Message)
	}
}

func TestHub_MissingToken(t *testing.T) {
	hub := NewHub()
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHub_RouteRequiresGet(t *testing.T) {
	router := mux.NewRouter()
	NewHub().Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push?token=t", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHub_CloseRejectsNewConnections(t *testing.T) {
	hub, url := startHub(t)
	require.NoError(t, hub.Close())

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=tok1", nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Online("tok1"))
}
