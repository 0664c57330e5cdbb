package identity

import (
	"fmt"

	"github.com/dep2p/go-natpeer/internal/core/storage"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/identity")

// Store 基于 KVStore 的 IdentityStore
type Store struct {
	kv *storage.KVStore
}

var _ pkgif.IdentityStore = (*Store)(nil)

// NewStore 创建 IdentityStore
func NewStore(eng storage.Engine) *Store {
	return &Store{kv: storage.NewKVStore(eng, storage.PrefixSettings)}
}

// Get 读取设置
func (s *Store) Get(key string) (string, bool, error) {
	v, ok, err := s.kv.GetString(key)
	if err != nil {
		return "", false, fmt.Errorf("identity get %s: %w", key, err)
	}
	return v, ok, nil
}

// Set 写入设置
func (s *Store) Set(key, value string) error {
	if err := s.kv.PutString(key, value); err != nil {
		return fmt.Errorf("identity set %s: %w", key, err)
	}
	logger.Debug("设置已更新", "key", key)
	return nil
}

// Delete 删除设置
func (s *Store) Delete(key string) error {
	if err := s.kv.Delete([]byte(key)); err != nil {
		return fmt.Errorf("identity delete %s: %w", key, err)
	}
	return nil
}

// ============================================================================
//                              辅助函数
// ============================================================================

// NatPolicy 读取 NAT 策略
//
// 键缺失或值无法解析时返回 NatPolicyUnconfigured；读取失败同样按未配置处理并返回错误。
func NatPolicy(s pkgif.IdentityStore) (types.NatPolicy, error) {
	v, ok, err := s.Get(types.KeyNATStatus)
	if err != nil {
		return types.NatPolicyUnconfigured, err
	}
	if !ok {
		return types.NatPolicyUnconfigured, nil
	}
	return types.ParseNatPolicy(v), nil
}

// SetNatPolicy 保存 NAT 策略，NatPolicyUnconfigured 删除该键
func SetNatPolicy(s pkgif.IdentityStore, p types.NatPolicy) error {
	if !p.Configured() {
		return s.Delete(types.KeyNATStatus)
	}
	return s.Set(types.KeyNATStatus, p.SettingValue())
}

// DeviceID 读取设备 ID，未注册时返回空串
func DeviceID(s pkgif.IdentityStore) (string, error) {
	v, _, err := s.Get(types.KeyDeviceID)
	return v, err
}

// RegisteredOnServer 目录服务是否已确认当前推送身份
func RegisteredOnServer(s pkgif.IdentityStore) bool {
	v, ok, err := s.Get(types.KeyRegisteredOnServer)
	if err != nil || !ok {
		return false
	}
	return v == "true"
}

// SetRegisteredOnServer 设置或清除确认标记
func SetRegisteredOnServer(s pkgif.IdentityStore, registered bool) error {
	if !registered {
		return s.Delete(types.KeyRegisteredOnServer)
	}
	return s.Set(types.KeyRegisteredOnServer, "true")
}
