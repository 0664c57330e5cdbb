// Package interfaces 定义 natpeer 的公共接口
//
// 设备侧组件之间只通过这些接口交互，便于在测试中替换为 mock。
//
// # 设备侧
//
//   - identity.go      - IdentityStore 键值设置存储
//   - directory.go     - DirectoryClient 目录服务客户端
//   - registry.go      - ServiceRegistry 本地服务注册表
//   - rendezvous.go    - RendezvousClient / Requester 会合控制通道
//   - notification.go  - NotificationChannel 推送通道
//   - injection.go     - InjectionPort 注入原语
//   - coordinator.go   - Coordinator 连接建立协调器
//
// # 基础设施
//
//   - eventbus.go      - 事件总线
//   - storage.go       - 存储引擎
package interfaces
