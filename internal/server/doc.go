// Package server 组装 natpeer 服务端
//
// 同一进程运行三部分：
//
//   - 目录 REST（/api）：设备与服务登记
//   - 推送中心（/push）：设备的 websocket 推送连接
//   - 会合控制通道：独立 TCP 端口
//
// 目录与推送共用 APIListen，控制通道使用 ControlListen。
package server
