// Package coordinator 实现连接建立协调器
//
// 协调器消费推送通道的事件，驱动设备级状态机：
//
//	Idle -> AwaitingDirectoryRegistration -> Registered
//
// 已注册状态下收到的每个连接请求在独立 goroutine 中处理：
//
//	RequestReceived -> RendezvousInFlight -> Established | Failed
//
// 请求之间互不影响，也不共享"当前请求"之类的可变状态。设备注册与注销同样是
// 独立任务，代数计数防止过期的注册结果覆盖新的状态。
// Stop 取消所有进行中的会合交换并等待任务结束，不做重试。
package coordinator
