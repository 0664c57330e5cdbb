package natpeer

import (
	"errors"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// Agent 生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted Agent 未启动
	ErrNotStarted = errors.New("agent not started")

	// ErrAlreadyStarted Agent 已启动
	ErrAlreadyStarted = errors.New("agent already started")

	// ErrAgentClosed Agent 已关闭
	ErrAgentClosed = errors.New("agent closed")

	// ────────────────────────────────────────────────────────────────────────
	// 组件错误（从 pkg/types 导出）
	// ────────────────────────────────────────────────────────────────────────

	// ErrTransport 网络传输失败
	ErrTransport = types.ErrTransport

	// ErrProtocol 控制通道协议错误
	ErrProtocol = types.ErrProtocol

	// ErrNotRegistered 设备尚未在目录服务注册
	ErrNotRegistered = types.ErrNotRegistered

	// ErrNotFound 服务不存在
	ErrNotFound = types.ErrNotFound

	// ErrDirectoryRejected 目录服务拒绝请求
	ErrDirectoryRejected = types.ErrDirectoryRejected

	// ErrAlreadyExists 服务已存在
	ErrAlreadyExists = types.ErrAlreadyExists

	// ErrInvalidService 服务名非法
	ErrInvalidService = types.ErrInvalidService

	// ErrInvalidPort 端口非法
	ErrInvalidPort = types.ErrInvalidPort
)
