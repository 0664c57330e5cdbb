// Package rendezvous 实现会合服务器控制通道
//
// 每条 TCP 连接上顺序读取 JSON 消息：
//
//	请求方 → {"event":"request","service":"ssh","nat":true}
//	设备   → {"event":"response","id":"<ID>","nat":true}
//	请求方 → {"event":"connection_info","id":"<ID>","isn":1,"ts_val":2}
//
// 收到 request 后经推送中心通知设备；收到 response 后向双方写出对端端点；
// 收到 connection_info 后把 TCP 参数转发给设备并关闭两条连接。
// 未知事件、未知请求 ID 或非法 JSON 会直接关闭该连接。
package rendezvous
