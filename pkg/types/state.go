package types

import (
	"fmt"
	"time"
)

// DeviceState 协调器的设备级状态
type DeviceState int

const (
	// StateIdle 空闲
	StateIdle DeviceState = iota
	// StateAwaitingDirectoryRegistration 等待推送身份或目录注册
	StateAwaitingDirectoryRegistration
	// StateRegistered 已注册，等待连接请求
	StateRegistered
)

// String 返回状态字符串表示
func (s DeviceState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDirectoryRegistration:
		return "awaiting-directory-registration"
	case StateRegistered:
		return "registered"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// RequestState 单个连接请求的状态
type RequestState int

const (
	// RequestReceived 已收到请求
	RequestReceived RequestState = iota
	// RendezvousInFlight 会合交换进行中
	RendezvousInFlight
	// RequestEstablished 已交给注入原语（终态）
	RequestEstablished
	// RequestFailed 失败（终态）
	RequestFailed
)

// String 返回状态字符串表示
func (s RequestState) String() string {
	switch s {
	case RequestReceived:
		return "request-received"
	case RendezvousInFlight:
		return "rendezvous-in-flight"
	case RequestEstablished:
		return "established"
	case RequestFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal 是否为终态
func (s RequestState) Terminal() bool {
	return s == RequestEstablished || s == RequestFailed
}

// RequestOutcome 一个连接请求的终态记录
type RequestOutcome struct {
	Request    ConnectionRequest
	State      RequestState
	BehindNAT  bool
	Response   *RendezvousResponse
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration 处理耗时
func (o RequestOutcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
