package interfaces

import "context"

// DirectoryClient 目录服务客户端
//
// 任何非成功响应（意外状态码、格式错误的响应体、传输错误）都以错误返回，
// 本层不做重试。错误可用 errors.Is 匹配 types.ErrDirectoryRejected、
// types.ErrTransport 或 types.ErrProtocol。
type DirectoryClient interface {
	// RegisterDevice 用推送身份注册设备，返回设备 ID
	RegisterDevice(ctx context.Context, pushToken string) (string, error)

	// UnregisterDevice 注销设备
	UnregisterDevice(ctx context.Context, deviceID string) error

	// RegisterService 在设备下注册服务，返回服务的远端 ID
	RegisterService(ctx context.Context, name, deviceID string) (string, error)

	// UnregisterService 注销服务
	UnregisterService(ctx context.Context, remoteID string) error
}
