// Package injection 提供注入原语的适配实现
//
// 注入原语负责用已知的初始序列号和时间戳伪造 TCP 会话以穿透 NAT，
// 其内部算法不在本模块范围内。这里只实现调用约定：
//
//   - ExecInjector 调用外部注入程序（libnatpeer 命令行）
//   - LogInjector 只记录交接参数，用于演练
//
// 本地地址默认取配置接口上的最后一个 IPv4 地址，可由配置覆盖。
package injection
