package interfaces

import (
	"context"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// NotificationChannel 推送通道
//
// 通过 Events 投递三类事件：推送身份获得、推送身份撤销、收到消息。
// RequestToken 与 ReleaseToken 是异步的，结果以事件形式出现在 Events 上。
type NotificationChannel interface {
	// Events 返回事件通道，通道在 Close 后关闭
	Events() <-chan types.Event

	// Token 返回当前本地推送身份，没有时返回空串
	Token() string

	// RequestToken 请求新的推送身份
	RequestToken(ctx context.Context) error

	// ReleaseToken 释放当前推送身份
	ReleaseToken(ctx context.Context) error

	// Close 关闭通道
	Close() error
}
