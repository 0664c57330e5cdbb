package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/core/storage"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestServer_ServeAndShutdown(t *testing.T) {
	eng, err := storage.Open(config.StorageConfig{InMemory: true})
	require.NoError(t, err)
	defer eng.Close()

	srv := NewWithEngine(config.DefaultServerConfig(), eng)
	apiLn, ctrlLn := listen(t), listen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, apiLn, ctrlLn) }()

	resp, err := http.Get("http://" + apiLn.Addr().String() + "/api")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"OK"}`, string(body))

	conn, err := net.Dial("tcp", ctrlLn.Addr().String())
	require.NoError(t, err)
	_ = conn.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NoError(t, srv.Close(), "引擎由调用方持有")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.ControlListen = ""
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_OpensDataDir(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.DataDir = t.TempDir()
	srv, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, srv.Store())
	require.NotNil(t, srv.Hub())
	assert.NoError(t, srv.Close())
}
