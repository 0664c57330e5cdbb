// Package rendezvous 实现会合服务器控制通道协议
//
// 控制通道是裸 TCP，双方交换不带长度前缀的 JSON 值。
//
// 设备侧（Client.Respond）：
//
//	-> {"event":"response","id":<requestId>[,"nat":true]}
//	<- [{"peer_ip":..,"peer_port":..}]
//	<- {"isn":..,"ts_val":..}
//
// 请求方（Requester）：
//
//	-> {"event":"request","service":<name>[,"nat":true]}
//	<- [{"id":..,"ip":..,"port":..,"peer_ip":..,"peer_port":..}]
//	-> {"event":"connection_info","id":..,"isn":..,"ts_val":..}
//
// "nat" 字段只在位于 NAT 之后时出现，不会写成 false。
// 读取端按完整 JSON 值切分字节流，单个值的大小受 MaxPayload 限制，
// 因此应答被拆包或粘包都能正确解析。
package rendezvous
