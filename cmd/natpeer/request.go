package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dep2p/go-natpeer/internal/core/rendezvous"
)

// runRequest 以请求方身份完成一次会合交换
//
// 打印设备端点后发送本端 TCP 参数。
func runRequest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)

	rendezvousAddr := fs.String("rendezvous", "", "会合服务器控制端口 host:port")
	service := fs.String("service", "", "请求的服务名")
	behindNAT := fs.Bool("nat", false, "请求方是否位于 NAT 之后")
	isn := fs.Uint("isn", 0, "本端初始序列号")
	tsVal := fs.Uint("ts", 0, "本端 TCP 时间戳")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	if *rendezvousAddr != "" {
		cfg.Rendezvous.Addr = *rendezvousAddr
	}

	req, err := rendezvous.Dial(ctx, cfg.Rendezvous)
	if err != nil {
		return err
	}
	defer func() { _ = req.Close() }()

	ep, err := req.Request(ctx, *service, *behindNAT)
	if err != nil {
		return err
	}
	fmt.Printf("request id: %s\n", ep.ID)
	fmt.Printf("local:      %s:%d\n", ep.IP, ep.Port)
	fmt.Printf("peer:       %s:%d\n", ep.PeerIP, ep.PeerPort)

	if err := req.SendConnectionInfo(ctx, ep.ID, uint32(*isn), uint32(*tsVal)); err != nil {
		return err
	}
	fmt.Println("连接参数已发送")
	return nil
}
