package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/pkg/types"
	"github.com/dep2p/go-natpeer/tests/mocks"
)

func registeredStore() *mocks.MockIdentityStore {
	return mocks.NewMockIdentityStore(map[string]string{
		types.KeyDeviceID:           "dev42",
		types.KeyRegisteredOnServer: "true",
	})
}

// ============================================================================
//                              Add
// ============================================================================

func TestAdd_ThenFind(t *testing.T) {
	dir := mocks.NewMockDirectory()
	dir.RegisterServiceFunc = func(_ context.Context, name, device string) (string, error) {
		return "svc9", nil
	}
	r := New(dir, registeredStore())

	for _, tc := range []struct {
		name string
		port uint16
	}{{"ssh", 22}, {"http", 8080}, {"x", 65535}} {
		svc, err := r.Add(context.Background(), tc.name, tc.port)
		require.NoError(t, err)
		assert.Equal(t, "svc9", svc.RemoteID)

		got, ok := r.FindByName(tc.name)
		require.True(t, ok)
		assert.Equal(t, tc.port, got.LocalPort)
		assert.True(t, got.Registered())
	}
	assert.Equal(t, [2]string{"ssh", "dev42"}, dir.RegisterServiceCalls[0])
}

func TestAdd_DirectoryDenied(t *testing.T) {
	dir := mocks.NewMockDirectory()
	dir.RegisterServiceFunc = func(context.Context, string, string) (string, error) {
		return "", &types.DirectoryError{Op: "register service", Status: 500}
	}
	r := New(dir, registeredStore())

	_, err := r.Add(context.Background(), "ssh", 22)
	assert.ErrorIs(t, err, types.ErrDirectoryRejected)
	assert.Equal(t, 0, r.Len())
	_, ok := r.FindByName("ssh")
	assert.False(t, ok)
}

func TestAdd_NotRegistered(t *testing.T) {
	dir := mocks.NewMockDirectory()

	cases := map[string]map[string]string{
		"no identity":    {},
		"not confirmed":  {types.KeyDeviceID: "dev42"},
		"flag, no ident": {types.KeyRegisteredOnServer: "true"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			r := New(dir, mocks.NewMockIdentityStore(values))
			_, err := r.Add(context.Background(), "ssh", 22)
			assert.ErrorIs(t, err, types.ErrNotRegistered)
			assert.Equal(t, 0, r.Len())
		})
	}
	_, _, regSvc, _ := dir.Calls()
	assert.Equal(t, 0, regSvc, "未注册时不调用目录服务")
}

func TestAdd_Duplicate(t *testing.T) {
	r := New(mocks.NewMockDirectory(), registeredStore())
	_, err := r.Add(context.Background(), "ssh", 22)
	require.NoError(t, err)

	_, err = r.Add(context.Background(), "ssh", 2222)
	assert.ErrorIs(t, err, types.ErrAlreadyExists)
	got, _ := r.FindByName("ssh")
	assert.Equal(t, uint16(22), got.LocalPort)
}

func TestAdd_Invalid(t *testing.T) {
	r := New(mocks.NewMockDirectory(), registeredStore())
	_, err := r.Add(context.Background(), "", 22)
	assert.ErrorIs(t, err, types.ErrInvalidService)
	_, err = r.Add(context.Background(), "ssh", 0)
	assert.ErrorIs(t, err, types.ErrInvalidPort)
}

// ============================================================================
//                              Remove
// ============================================================================

func TestRemove_Unknown(t *testing.T) {
	r := New(mocks.NewMockDirectory(), registeredStore())
	_, err := r.Add(context.Background(), "ssh", 22)
	require.NoError(t, err)

	err = r.Remove(context.Background(), "ftp")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, ok := r.FindByName("ssh")
	assert.True(t, ok, "其他条目不受影响")
}

func TestRemove_DirectoryFailureKeepsEntry(t *testing.T) {
	dir := mocks.NewMockDirectory()
	r := New(dir, registeredStore())
	_, err := r.Add(context.Background(), "ssh", 22)
	require.NoError(t, err)

	dir.UnregisterServiceFunc = func(context.Context, string) error {
		return &types.TransportError{Op: "unregister service", Cause: errors.New("unreachable")}
	}
	err = r.Remove(context.Background(), "ssh")
	assert.ErrorIs(t, err, types.ErrTransport)
	_, ok := r.FindByName("ssh")
	assert.True(t, ok, "远端未确认时保留条目")

	dir.UnregisterServiceFunc = nil
	require.NoError(t, r.Remove(context.Background(), "ssh"))
	_, ok = r.FindByName("ssh")
	assert.False(t, ok)
	assert.Equal(t, []string{"svc-ssh", "svc-ssh"}, dir.UnregisteredServices())
}

// ============================================================================
//                              Shutdown
// ============================================================================

func TestShutdown_AttemptsAll(t *testing.T) {
	const n = 5
	dir := mocks.NewMockDirectory()
	r := New(dir, registeredStore())
	for i := 0; i < n; i++ {
		_, err := r.Add(context.Background(), fmt.Sprintf("svc%d", i), uint16(1000+i))
		require.NoError(t, err)
	}

	// 第 k 个条目注销失败
	dir.UnregisterServiceFunc = func(_ context.Context, remoteID string) error {
		if remoteID == "svc-svc2" {
			return &types.DirectoryError{Op: "unregister service", Status: 500}
		}
		return nil
	}

	err := r.Shutdown(context.Background())
	assert.ErrorIs(t, err, types.ErrDirectoryRejected)

	_, _, _, unregSvc := dir.Calls()
	assert.Equal(t, n, unregSvc, "所有条目都尝试注销")
	assert.Equal(t, 1, r.Len())
	_, ok := r.FindByName("svc2")
	assert.True(t, ok)

	_, err = r.Add(context.Background(), "late", 1)
	assert.ErrorIs(t, err, types.ErrClosed)
}

func TestShutdown_DrainsInFlightAdd(t *testing.T) {
	dir := mocks.NewMockDirectory()
	release := make(chan struct{})
	entered := make(chan struct{})
	dir.RegisterServiceFunc = func(context.Context, string, string) (string, error) {
		close(entered)
		<-release
		return "svc9", nil
	}
	r := New(dir, registeredStore())

	addDone := make(chan error, 1)
	go func() {
		_, err := r.Add(context.Background(), "ssh", 22)
		addDone <- err
	}()
	<-entered

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- r.Shutdown(context.Background()) }()

	// 注册仍在进行中，Shutdown 必须等待
	select {
	case err := <-shutdownDone:
		t.Fatalf("shutdown finished before add: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-addDone)
	require.NoError(t, <-shutdownDone)

	assert.Equal(t, []string{"svc9"}, dir.UnregisteredServices(), "已确认的注册被注销，不在远端遗留")
	_, ok := r.FindByName("ssh")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

// ============================================================================
//                              并发
// ============================================================================

func TestSameName_Serialized(t *testing.T) {
	dir := mocks.NewMockDirectory()
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	dir.RegisterServiceFunc = func(context.Context, string, string) (string, error) {
		entered <- struct{}{}
		<-release
		return "svc9", nil
	}
	r := New(dir, registeredStore())

	addDone := make(chan error, 1)
	go func() {
		_, err := r.Add(context.Background(), "ssh", 22)
		addDone <- err
	}()
	<-entered

	// Add 仍在进行中，Remove 必须等待而不是返回 NotFound
	removeDone := make(chan error, 1)
	go func() { removeDone <- r.Remove(context.Background(), "ssh") }()

	select {
	case err := <-removeDone:
		t.Fatalf("remove finished before add: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-addDone)
	require.NoError(t, <-removeDone)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.names.size(), "锁已回收")
}

func TestDifferentNames_Concurrent(t *testing.T) {
	dir := mocks.NewMockDirectory()
	r := New(dir, registeredStore())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Add(context.Background(), fmt.Sprintf("s%02d", i), uint16(2000+i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	svcs := r.Services()
	require.Len(t, svcs, 32)
	assert.Equal(t, "s00", svcs[0].Name)
	assert.Equal(t, "s31", svcs[31].Name)
}
