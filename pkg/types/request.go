package types

import (
	"encoding/json"
	"fmt"
)

// PushEventRequest 推送消息中表示服务连接请求的 gcm_event 值
const PushEventRequest = "request"

// ConnectionRequest 一次入站连接请求
//
// 由单个 message-received 事件派生，不持久化。
type ConnectionRequest struct {
	// RequestID 会合服务器生成的请求 ID
	RequestID string `json:"id"`

	// ServiceName 被请求的服务名
	ServiceName string `json:"service"`
}

// PushMessage 推送消息载荷
type PushMessage struct {
	Event   string `json:"gcm_event"`
	ID      string `json:"id,omitempty"`
	Service string `json:"service,omitempty"`
}

// IsRequest 是否为服务连接请求
func (m PushMessage) IsRequest() bool {
	return m.Event == PushEventRequest
}

// ParsePushMessage 解析推送消息载荷
func ParsePushMessage(payload []byte) (PushMessage, error) {
	var msg PushMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return PushMessage{}, &ProtocolError{Op: "parse push message", Cause: err}
	}
	return msg, nil
}

// ConnectionRequestFrom 从推送消息构建连接请求
//
// 非 request 事件返回 (zero, false, nil)。request 事件缺少 id 或 service 时返回错误。
func ConnectionRequestFrom(payload []byte) (ConnectionRequest, bool, error) {
	msg, err := ParsePushMessage(payload)
	if err != nil {
		return ConnectionRequest{}, false, err
	}
	if !msg.IsRequest() {
		return ConnectionRequest{}, false, nil
	}
	if msg.ID == "" || msg.Service == "" {
		return ConnectionRequest{}, true, &ProtocolError{
			Op:    "parse push message",
			Cause: fmt.Errorf("request without id or service"),
		}
	}
	return ConnectionRequest{RequestID: msg.ID, ServiceName: msg.Service}, true, nil
}
