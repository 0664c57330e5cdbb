// Package registry 实现本地暴露服务的注册表
//
// 注册表是设备上唯一的共享可变状态。所有变更都先经目录服务确认，
// 再更新内存：
//
//   - Add：目录服务返回远端 ID 后才写入条目
//   - Remove：目录服务确认注销后才删除条目，失败时条目保留
//   - Shutdown：逐个尝试注销全部条目，单个失败只记录日志
//
// 同一服务名的操作由按名加锁串行化（远程调用与内存更新在同一临界区内），
// 不同服务名互不阻塞。
package registry
