package rendezvous

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dep2p/go-natpeer/pkg/types"
)

// 控制通道事件
const (
	EventRequest        = "request"
	EventResponse       = "response"
	EventConnectionInfo = "connection_info"
)

// Message 控制通道上行消息
type Message struct {
	Event   string  `json:"event"`
	ID      string  `json:"id,omitempty"`
	Service string  `json:"service,omitempty"`
	NAT     bool    `json:"nat,omitempty"`
	ISN     *uint32 `json:"isn,omitempty"`
	TSVal   *uint32 `json:"ts_val,omitempty"`
}

// ResponseMessage 设备侧应答
func ResponseMessage(requestID string, behindNAT bool) Message {
	return Message{Event: EventResponse, ID: requestID, NAT: behindNAT}
}

// RequestMessage 请求方发起请求
func RequestMessage(service string, behindNAT bool) Message {
	return Message{Event: EventRequest, Service: service, NAT: behindNAT}
}

// ConnectionInfoMessage 请求方发送 TCP 参数
func ConnectionInfoMessage(requestID string, isn, tsVal uint32) Message {
	return Message{Event: EventConnectionInfo, ID: requestID, ISN: &isn, TSVal: &tsVal}
}

// Encode 编码消息
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// ============================================================================
//                              Decoder
// ============================================================================

// Decoder 从字节流中逐个读取 JSON 值
//
// 每次 Decode 最多从底层读取 max 字节。
type Decoder struct {
	lr  *io.LimitedReader
	dec *json.Decoder
	max int64
}

// NewDecoder 创建 Decoder
func NewDecoder(r io.Reader, max int) *Decoder {
	lr := &io.LimitedReader{R: r, N: int64(max)}
	return &Decoder{lr: lr, dec: json.NewDecoder(lr), max: int64(max)}
}

// Decode 读取下一个 JSON 值
//
// 对端在值开始前关闭、值被截断或超过大小上限、JSON 非法都返回 ProtocolError；
// 底层读错误返回 TransportError。
func (d *Decoder) Decode(op string, v interface{}) error {
	d.lr.N = d.max
	err := d.dec.Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// 读满上限后 LimitedReader 也返回 EOF
		if d.lr.N == 0 {
			return &types.ProtocolError{Op: op, Cause: fmt.Errorf("payload exceeds %d bytes", d.max)}
		}
		if errors.Is(err, io.EOF) {
			return &types.ProtocolError{Op: op, Cause: errors.New("connection closed before payload")}
		}
		return &types.ProtocolError{Op: op, Cause: errors.New("truncated payload")}
	default:
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return &types.ProtocolError{Op: op, Cause: err}
		}
		return &types.TransportError{Op: op, Cause: err}
	}
}

// ============================================================================
//                              应答解析
// ============================================================================

// endpointWire 第一段应答元素，指针字段用于区分缺失与零值
type endpointWire struct {
	ID       string  `json:"id"`
	IP       string  `json:"ip"`
	Port     int     `json:"port"`
	PeerIP   *string `json:"peer_ip"`
	PeerPort *int    `json:"peer_port"`
}

type paramsWire struct {
	ID    string  `json:"id"`
	ISN   *uint32 `json:"isn"`
	TSVal *uint32 `json:"ts_val"`
}

// ReadEndpoint 读取第一段应答：至少一个元素的数组，元素 0 含 peer_ip 与 peer_port
func ReadEndpoint(d *Decoder) (types.PeerEndpoint, error) {
	const op = "read peer endpoint"

	var arr []endpointWire
	if err := d.Decode(op, &arr); err != nil {
		return types.PeerEndpoint{}, err
	}
	if len(arr) == 0 {
		return types.PeerEndpoint{}, &types.ProtocolError{Op: op, Cause: errors.New("empty array")}
	}
	w := arr[0]
	if w.PeerIP == nil || w.PeerPort == nil {
		return types.PeerEndpoint{}, &types.ProtocolError{Op: op, Cause: errors.New("missing peer_ip or peer_port")}
	}
	return types.PeerEndpoint{
		ID:       w.ID,
		IP:       w.IP,
		Port:     w.Port,
		PeerIP:   *w.PeerIP,
		PeerPort: *w.PeerPort,
	}, nil
}

// ReadParams 读取第二段应答：含 isn 与 ts_val 的对象
func ReadParams(d *Decoder) (types.TCPParams, error) {
	const op = "read tcp params"

	var w paramsWire
	if err := d.Decode(op, &w); err != nil {
		return types.TCPParams{}, err
	}
	if w.ISN == nil || w.TSVal == nil {
		return types.TCPParams{}, &types.ProtocolError{Op: op, Cause: errors.New("missing isn or ts_val")}
	}
	return types.TCPParams{ID: w.ID, ISN: *w.ISN, TSVal: *w.TSVal}, nil
}
