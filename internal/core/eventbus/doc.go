// Package eventbus 实现进程内事件总线
//
// 事件按 Go 类型路由，Subscribe/Emitter 的参数必须是指针类型，
// 例如 new(types.EvtRequestDone)。
//
// 发射是非阻塞的：订阅者缓冲区满时事件被丢弃并计数，
// 避免慢消费者拖住协调器或推送通道。
//
// 使用示例：
//
//	sub, _ := bus.Subscribe(new(types.EvtRequestDone), eventbus.BufSize(32))
//	defer sub.Close()
//
//	em, _ := bus.Emitter(new(types.EvtRequestDone))
//	em.Emit(types.EvtRequestDone{Outcome: outcome})
package eventbus
