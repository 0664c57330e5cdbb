package types

// EventKind 通知通道事件类型
type EventKind int

const (
	// EventPushIdentityObtained 已获得推送身份
	EventPushIdentityObtained EventKind = iota + 1
	// EventPushIdentityRevoked 推送身份已撤销
	EventPushIdentityRevoked
	// EventMessageReceived 收到推送消息
	EventMessageReceived
)

// String 返回事件类型字符串表示
func (k EventKind) String() string {
	switch k {
	case EventPushIdentityObtained:
		return "push-identity-obtained"
	case EventPushIdentityRevoked:
		return "push-identity-revoked"
	case EventMessageReceived:
		return "message-received"
	default:
		return "unknown"
	}
}

// Event 通知通道投递给协调器的事件
//
// Token 用于两种身份事件，Payload 用于消息事件。
type Event struct {
	Kind    EventKind
	Token   string
	Payload []byte
}

// IdentityObtained 构造身份获得事件
func IdentityObtained(token string) Event {
	return Event{Kind: EventPushIdentityObtained, Token: token}
}

// IdentityRevoked 构造身份撤销事件
func IdentityRevoked(token string) Event {
	return Event{Kind: EventPushIdentityRevoked, Token: token}
}

// MessageReceived 构造消息事件
func MessageReceived(payload []byte) Event {
	return Event{Kind: EventMessageReceived, Payload: payload}
}

// ============================================================================
//                              事件总线事件
// ============================================================================

// EvtDeviceStateChanged 设备级状态变更
type EvtDeviceStateChanged struct {
	Old DeviceState
	New DeviceState
}

// EvtRequestDone 连接请求到达终态
type EvtRequestDone struct {
	Outcome RequestOutcome
}

// EvtPushDelivery 进程内推送投递
//
// loopback 推送通道按 Token 过滤。
type EvtPushDelivery struct {
	Token   string
	Payload []byte
}
