// Package types 定义 natpeer 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 natpeer 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - device.go      - Device 设备注册状态
//   - service.go     - ExposedService 本地暴露的服务
//   - request.go     - ConnectionRequest 与推送消息载荷
//   - nat.go         - NatPolicy 三态 NAT 策略
//   - rendezvous.go  - 会合交换结果（PeerEndpoint, TCPParams, Exchange）
//   - injection.go   - 注入原语的输入参数
//   - events.go      - 通知通道事件
//   - state.go       - 协调器状态与请求结果
//   - keys.go        - IdentityStore 键名
//   - errors.go      - 公共错误定义
//   - version.go     - 版本号
package types
