// Package stun 实现 NAT 探测
//
// 通过 STUN Binding 请求（RFC 5389）获得本地 UDP 套接字的映射地址，
// 映射 IP 与套接字本地 IP 不同即判定位于 NAT 之后。
//
// 探测结果只作为 NAT 策略的建议值，由 nat-probe 命令在用户显式要求时写入，
// 协调器从不自动探测。
//
// # 使用示例
//
//	client := stun.NewClient(cfg.NAT)
//	report, err := client.Probe(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.MappedAddr, report.Suggested())
package stun
