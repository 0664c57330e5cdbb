package badger

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-natpeer/internal/core/storage/engine"
)

// testEngine 创建测试用引擎，数据写入 t.TempDir()
func testEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := New(engine.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_PutGetDelete(t *testing.T) {
	e := testEngine(t)

	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	got, err := e.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := e.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.Delete([]byte("k")))
	_, err = e.Get([]byte("k"))
	assert.ErrorIs(t, err, engine.ErrNotFound)

	ok, err = e.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_EmptyKey(t *testing.T) {
	e := testEngine(t)
	assert.ErrorIs(t, e.Put(nil, []byte("v")), engine.ErrEmptyKey)
	_, err := e.Get(nil)
	assert.ErrorIs(t, err, engine.ErrEmptyKey)
}

func TestEngine_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	e, err := New(engine.DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, e.Put([]byte("_id"), []byte("dev42")))
	require.NoError(t, e.Close())

	e, err = New(engine.DefaultConfig(path))
	require.NoError(t, err)
	defer e.Close()

	got, err := e.Get([]byte("_id"))
	require.NoError(t, err)
	assert.Equal(t, "dev42", string(got))
}

func TestEngine_Iterate(t *testing.T) {
	e := testEngine(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Put([]byte(fmt.Sprintf("a/%d", i)), []byte{byte(i)}))
	}
	require.NoError(t, e.Put([]byte("b/0"), []byte("x")))

	var keys []string
	require.NoError(t, e.Iterate([]byte("a/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	assert.Equal(t, []string{"a/0", "a/1", "a/2"}, keys)

	stop := errors.New("stop")
	n := 0
	err := e.Iterate([]byte("a/"), func(_, _ []byte) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestEngine_Update(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.Update(func(txn engine.Txn) error {
		if _, err := txn.Get([]byte("x")); !errors.Is(err, engine.ErrNotFound) {
			return fmt.Errorf("unexpected: %v", err)
		}
		return txn.Put([]byte("x"), []byte("1"))
	}))
	got, err := e.Get([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}

func TestEngine_InMemory(t *testing.T) {
	e, err := New(&engine.Config{InMemory: true})
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Start())
	require.NoError(t, e.Put([]byte("k"), []byte("v")))
	ok, err := e.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_Closed(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, e.Close())
	assert.NoError(t, e.Close(), "重复关闭")
	assert.ErrorIs(t, e.Put([]byte("k"), nil), engine.ErrClosed)
	assert.ErrorIs(t, e.Start(), engine.ErrClosed)
}

func TestEngine_Concurrent(t *testing.T) {
	e := testEngine(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := []byte(fmt.Sprintf("k%d", i))
			assert.NoError(t, e.Put(k, k))
			_, err := e.Get(k)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
