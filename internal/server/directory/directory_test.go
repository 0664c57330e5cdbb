package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/config"
	dirclient "github.com/dep2p/go-natpeer/internal/core/directory"
	"github.com/dep2p/go-natpeer/internal/core/storage"
	"github.com/dep2p/go-natpeer/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	eng, err := storage.Open(config.StorageConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return NewStore(eng)
}

func testServer(t *testing.T) (*Store, *httptest.Server) {
	t.Helper()
	store := testStore(t)
	router := mux.NewRouter()
	NewAPI(store).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return store, srv
}

func TestStore_DeviceAndServices(t *testing.T) {
	s := testStore(t)

	dev, err := s.CreateDevice("tok1")
	require.NoError(t, err)
	assert.NotEmpty(t, dev.ID)

	svc, err := s.CreateService("ssh", dev.ID)
	require.NoError(t, err)

	gotSvc, gotDev, err := s.Route("ssh")
	require.NoError(t, err)
	assert.Equal(t, svc, gotSvc)
	assert.Equal(t, "tok1", gotDev.GCM)

	_, _, err = s.Route("http")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = s.CreateService("http", "missing")
	assert.ErrorIs(t, err, ErrUnknownDevice)

	require.NoError(t, s.DeleteDevice(dev.ID))
	_, err = s.FindService("ssh")
	assert.ErrorIs(t, err, types.ErrNotFound, "services removed with device")
	assert.ErrorIs(t, s.DeleteDevice(dev.ID), types.ErrNotFound)
	assert.ErrorIs(t, s.DeleteService(svc.ID), types.ErrNotFound)
}

func TestAPI_Status(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Validation(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.PostForm(srv.URL+"/api/devices", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.PostForm(srv.URL+"/api/services", url.Values{"name": {"ssh"}, "device": {"nope"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/devices/nope", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Routes(t *testing.T) {
	store, srv := testServer(t)

	// 路径存在但方法不匹配
	resp, err := http.Get(srv.URL + "/api/devices")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.PostForm(srv.URL+"/api/services/abc", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// 路径变量取出服务 id
	dev, err := store.CreateDevice("tok1")
	require.NoError(t, err)
	svc, err := store.CreateService("ssh", dev.ID)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/services/"+svc.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = store.FindService("ssh")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// 设备侧目录客户端与服务端接口互通
func TestAPI_WithDeviceClient(t *testing.T) {
	store, srv := testServer(t)
	client := dirclient.NewWithHTTPClient(srv.URL+"/api", srv.Client())
	ctx := context.Background()

	devID, err := client.RegisterDevice(ctx, "tok1")
	require.NoError(t, err)

	svcID, err := client.RegisterService(ctx, "ssh", devID)
	require.NoError(t, err)

	svc, dev, err := store.Route("ssh")
	require.NoError(t, err)
	assert.Equal(t, svcID, svc.ID)
	assert.Equal(t, devID, dev.ID)

	require.NoError(t, client.UnregisterService(ctx, svcID))
	err = client.UnregisterService(ctx, svcID)
	assert.ErrorIs(t, err, types.ErrDirectoryRejected)

	require.NoError(t, client.UnregisterDevice(ctx, devID))
	assert.ErrorIs(t, client.UnregisterDevice(ctx, devID), types.ErrDirectoryRejected)

	_, err = client.RegisterService(ctx, "ssh", devID)
	assert.ErrorIs(t, err, types.ErrDirectoryRejected)
}
