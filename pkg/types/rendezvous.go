package types

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
)

// PeerEndpoint 会合服务器第一段应答的数组元素
//
// 会合服务器对请求方和设备方分别写出 [{"id","ip","port","peer_ip","peer_port"}]。
type PeerEndpoint struct {
	ID       string `json:"id,omitempty"`
	IP       string `json:"ip,omitempty"`
	Port     int    `json:"port,omitempty"`
	PeerIP   string `json:"peer_ip"`
	PeerPort int    `json:"peer_port"`
}

// TCPParams 会合服务器第二段应答
type TCPParams struct {
	ID    string `json:"id,omitempty"`
	ISN   uint32 `json:"isn"`
	TSVal uint32 `json:"ts_val"`
}

// Exchange 一次会合交换的组合结果
//
// 线上形式为两元素数组：[PeerEndpoint, TCPParams]。
type Exchange struct {
	Endpoint PeerEndpoint
	Params   TCPParams
}

// MarshalJSON 编码为两元素数组
func (e Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Endpoint, e.Params})
}

// UnmarshalJSON 从两元素数组解码
func (e *Exchange) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("exchange: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Endpoint); err != nil {
		return fmt.Errorf("exchange endpoint: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Params); err != nil {
		return fmt.Errorf("exchange params: %w", err)
	}
	return nil
}

// Response 校验并转换为 RendezvousResponse
func (e Exchange) Response() (RendezvousResponse, error) {
	if e.Endpoint.PeerIP == "" {
		return RendezvousResponse{}, &ProtocolError{Op: "decode exchange", Cause: fmt.Errorf("missing peer_ip")}
	}
	if net.ParseIP(e.Endpoint.PeerIP) == nil {
		return RendezvousResponse{}, &ProtocolError{Op: "decode exchange", Cause: fmt.Errorf("invalid peer_ip %q", e.Endpoint.PeerIP)}
	}
	if e.Endpoint.PeerPort <= 0 || e.Endpoint.PeerPort > 65535 {
		return RendezvousResponse{}, &ProtocolError{Op: "decode exchange", Cause: fmt.Errorf("invalid peer_port %d", e.Endpoint.PeerPort)}
	}
	return RendezvousResponse{
		PeerAddress: e.Endpoint.PeerIP,
		PeerPort:    uint16(e.Endpoint.PeerPort),
		InitialSeq:  e.Params.ISN,
		Timestamp:   e.Params.TSVal,
	}, nil
}

// RendezvousResponse 校验后的会合结果
//
// 由一次交换产生，立即交给注入原语，不存储。
type RendezvousResponse struct {
	PeerAddress string
	PeerPort    uint16
	InitialSeq  uint32
	Timestamp   uint32
}

// PeerAddr 返回 host:port
func (r RendezvousResponse) PeerAddr() string {
	return net.JoinHostPort(r.PeerAddress, strconv.Itoa(int(r.PeerPort)))
}
