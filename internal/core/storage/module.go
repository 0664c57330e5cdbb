package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/core/storage/engine"
	"github.com/dep2p/go-natpeer/internal/core/storage/engine/badger"
	"github.com/dep2p/go-natpeer/internal/core/storage/kv"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
)

var logger = log.Logger("core/storage")

// 键前缀
var (
	// PrefixSettings 设备设置
	PrefixSettings = []byte("s/")
	// PrefixDevices 服务端设备表
	PrefixDevices = []byte("d/")
	// PrefixServices 服务端服务表
	PrefixServices = []byte("v/")
)

// 重导出 engine 包的错误
var (
	ErrNotFound = engine.ErrNotFound
	ErrClosed   = engine.ErrClosed
	IsNotFound  = engine.IsNotFound
)

// Engine 是 engine.Engine 的类型别名
type Engine = engine.Engine

// KVStore 是 kv.Store 的类型别名
type KVStore = kv.Store

// Params Storage 模块依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// Module 返回 Storage Fx 模块
//
// 提供 engine.Engine；OnStart 启动 GC，OnStop 关闭数据库。
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideEngine),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEngine 按统一配置打开存储引擎
func ProvideEngine(p Params) (engine.Engine, error) {
	cfg := config.DefaultStorageConfig()
	if p.Config != nil {
		cfg = p.Config.Storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Open(cfg)
}

// Open 打开存储引擎
func Open(cfg config.StorageConfig) (engine.Engine, error) {
	ecfg := engine.DefaultConfig(cfg.DBPath())
	ecfg.InMemory = cfg.InMemory
	if cfg.InMemory {
		ecfg.Path = ""
	}
	logger.Debug("打开存储引擎", "path", ecfg.Path, "in_memory", ecfg.InMemory)
	eng, err := badger.New(ecfg)
	if err != nil {
		logger.Error("打开存储引擎失败", "error", err)
		return nil, err
	}
	return eng, nil
}

// NewKVStore 创建带前缀的 KVStore
func NewKVStore(eng engine.Engine, prefix []byte) *kv.Store {
	return kv.New(eng, prefix)
}

func registerLifecycle(lc fx.Lifecycle, eng engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return eng.Start()
		},
		OnStop: func(_ context.Context) error {
			logger.Info("正在关闭存储引擎")
			if err := eng.Close(); err != nil {
				logger.Warn("存储引擎关闭失败", "error", err)
				return err
			}
			return nil
		},
	})
}
