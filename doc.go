// Package natpeer 提供 NAT 后设备的服务暴露能力
//
// 设备在目录服务登记自身与本地服务；远端请求某个服务时，会合服务器通过推送
// 通知设备，设备经控制通道取得对端端点与 TCP 参数，交给注入原语在 NAT 上
// 拼接出一条 TCP 会话，无需端口转发。
//
// # 快速开始
//
//	agent, err := natpeer.New(
//	    natpeer.WithDirectoryURL("http://natpeer.example.org:8000/api"),
//	    natpeer.WithRendezvousAddr("natpeer.example.org:8001"),
//	    natpeer.WithDataDir("/var/lib/natpeer"),
//	    natpeer.WithInterface("wlan0"),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := agent.Start(ctx); err != nil {
//	    return err
//	}
//	defer agent.Close()
//
//	if err := agent.WaitRegistered(ctx); err != nil {
//	    return err
//	}
//	_, err = agent.AddService(ctx, "ssh", 22)
//
// # 组件
//
// Agent 由 Fx 组装以下组件：
//
//   - IdentityStore：持久化设备 ID、推送身份、NAT 策略
//   - DirectoryClient：目录服务 REST 客户端
//   - ServiceRegistry：本地服务与远端登记的对应关系
//   - RendezvousClient：会合控制通道
//   - NotificationChannel：推送身份与推送消息
//   - InjectionPort：TCP 会话注入原语
//   - Coordinator：响应推送事件的连接建立状态机
//
// 每个组件都可用 WithXxx 选项替换为自定义实现。
package natpeer
