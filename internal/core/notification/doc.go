// Package notification 实现推送通道
//
// 推送通道向协调器投递三类事件：推送身份获得、推送身份撤销、收到消息。
// 事件通过类型化的 channel 传递，本地推送身份持久化在 IdentityStore 的 "gcm" 键下。
//
// 两种实现：
//
//   - Loopback 订阅进程内事件总线上的 EvtPushDelivery，按 token 过滤
//   - WebSocket 连接服务端推送中心 GET /push?token=<token>，接收 {"message":"<json>"} 帧
package notification
