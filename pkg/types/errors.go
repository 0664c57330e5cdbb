package types

import (
	"errors"
	"fmt"
)

// 公共错误定义
var (
	// ErrTransport 连接、读、写失败
	ErrTransport = errors.New("transport error")

	// ErrProtocol 载荷格式错误或不完整
	ErrProtocol = errors.New("protocol error")

	// ErrNotRegistered 设备尚未获得目录身份
	ErrNotRegistered = errors.New("device not registered")

	// ErrNotFound 服务名未知
	ErrNotFound = errors.New("service not found")

	// ErrDirectoryRejected 目录服务返回非成功状态
	ErrDirectoryRejected = errors.New("directory rejected request")

	// ErrAlreadyExists 服务名已存在
	ErrAlreadyExists = errors.New("service already exists")

	// ErrInvalidService 服务名无效
	ErrInvalidService = errors.New("invalid service")

	// ErrInvalidPort 端口无效
	ErrInvalidPort = errors.New("invalid port")

	// ErrClosed 组件已关闭
	ErrClosed = errors.New("closed")
)

// ProtocolError 协议错误，errors.Is(err, ErrProtocol) 为 true
type ProtocolError struct {
	Op    string
	Cause error
}

func (e *ProtocolError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", ErrProtocol, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrProtocol, e.Op, e.Cause)
}

// Unwrap 返回底层错误链
func (e *ProtocolError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrProtocol}
	}
	return []error{ErrProtocol, e.Cause}
}

// TransportError 传输错误，errors.Is(err, ErrTransport) 为 true
type TransportError struct {
	Op    string
	Addr  string
	Cause error
}

func (e *TransportError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrTransport, e.Op, e.Addr, e.Cause)
}

// Unwrap 返回底层错误链
func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Cause}
}

// DirectoryError 目录服务拒绝，errors.Is(err, ErrDirectoryRejected) 为 true
type DirectoryError struct {
	Op     string
	Status int
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("%s: %s: status %d", ErrDirectoryRejected, e.Op, e.Status)
}

// Is 匹配 ErrDirectoryRejected
func (e *DirectoryError) Is(target error) bool {
	return target == ErrDirectoryRejected
}
