package types

import (
	"fmt"
	"strings"
)

// MaxServiceNameLength 服务名最大长度
const MaxServiceNameLength = 256

// ExposedService 本地暴露的服务
//
// RemoteID 仅在目录服务确认注册后设置。
type ExposedService struct {
	// Name 服务名（在设备注册表内唯一）
	Name string `json:"name"`

	// LocalPort 本地监听端口
	LocalPort uint16 `json:"local_port"`

	// RemoteID 目录服务分配的服务 ID
	RemoteID string `json:"remote_id,omitempty"`
}

// Registered 目录服务是否已确认
func (s ExposedService) Registered() bool {
	return s.RemoteID != ""
}

// String 返回 name:port 形式
func (s ExposedService) String() string {
	return fmt.Sprintf("%s:%d", s.Name, s.LocalPort)
}

// ValidateService 检查服务名和端口
func ValidateService(name string, port uint16) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty service name", ErrInvalidService)
	}
	if len(name) > MaxServiceNameLength {
		return fmt.Errorf("%w: service name too long", ErrInvalidService)
	}
	if port == 0 {
		return fmt.Errorf("%w: port must be non-zero", ErrInvalidPort)
	}
	return nil
}
