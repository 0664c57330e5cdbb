package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/dep2p/go-natpeer"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// serviceSpec -service name:port
type serviceSpec struct {
	name string
	port uint16
}

// serviceList 可重复的 -service 参数
type serviceList []serviceSpec

func (l *serviceList) String() string {
	parts := make([]string, 0, len(*l))
	for _, s := range *l {
		parts = append(parts, fmt.Sprintf("%s:%d", s.name, s.port))
	}
	return strings.Join(parts, ",")
}

func (l *serviceList) Set(v string) error {
	s, err := parseService(v)
	if err != nil {
		return err
	}
	*l = append(*l, s)
	return nil
}

func parseService(v string) (serviceSpec, error) {
	i := strings.LastIndexByte(v, ':')
	if i <= 0 || i == len(v)-1 {
		return serviceSpec{}, fmt.Errorf("service must be name:port, got %q", v)
	}
	port, err := strconv.ParseUint(v[i+1:], 10, 16)
	if err != nil {
		return serviceSpec{}, fmt.Errorf("invalid port in %q: %w", v, err)
	}
	s := serviceSpec{name: v[:i], port: uint16(port)}
	if err := types.ValidateService(s.name, s.port); err != nil {
		return serviceSpec{}, err
	}
	return s, nil
}

// natFlag 可选布尔：未指定时保持已保存的策略
type natFlag struct {
	set   bool
	value bool
}

func (f *natFlag) String() string {
	if !f.set {
		return ""
	}
	return strconv.FormatBool(f.value)
}

func (f *natFlag) Set(v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	f.set, f.value = true, b
	return nil
}

func (f *natFlag) IsBoolFlag() bool { return true }

func runAgent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)

	var services serviceList
	var nat natFlag
	directoryURL := fs.String("directory", "", "目录服务地址，例如 http://host:8000/api")
	rendezvousAddr := fs.String("rendezvous", "", "会合服务器控制端口 host:port")
	pushURL := fs.String("push", "", "websocket 推送地址，例如 ws://host:8000/push")
	dataDir := fs.String("data-dir", "", "数据目录")
	iface := fs.String("interface", "", "注入使用的网络接口")
	localAddr := fs.String("local-addr", "", "固定本地地址（不从接口读取）")
	dryRun := fs.Bool("dry-run", false, "只记录注入参数，不执行注入命令")
	fs.Var(&services, "service", "暴露的服务 name:port（可重复）")
	fs.Var(&nat, "nat", "设备是否位于 NAT 之后（未指定时沿用已保存的设置）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}

	opts := []natpeer.Option{natpeer.WithConfig(cfg)}
	if *directoryURL != "" {
		opts = append(opts, natpeer.WithDirectoryURL(*directoryURL))
	}
	if *rendezvousAddr != "" {
		opts = append(opts, natpeer.WithRendezvousAddr(*rendezvousAddr))
	}
	if *pushURL != "" {
		opts = append(opts, natpeer.WithPushURL(*pushURL))
	}
	if *dataDir != "" {
		opts = append(opts, natpeer.WithDataDir(*dataDir))
	}
	if *iface != "" {
		opts = append(opts, natpeer.WithInterface(*iface))
	}
	if *localAddr != "" {
		opts = append(opts, natpeer.WithLocalAddress(*localAddr))
	}
	if *dryRun {
		opts = append(opts, natpeer.WithDryRun())
	}
	opts = append(opts, natpeer.WithOnRequestDone(func(o types.RequestOutcome) {
		if o.Err != nil {
			logger.Warn("连接请求结束", "id", o.Request.RequestID, "service", o.Request.ServiceName,
				"state", o.State.String(), "error", o.Err)
			return
		}
		logger.Info("连接请求结束", "id", o.Request.RequestID, "service", o.Request.ServiceName,
			"state", o.State.String(), "duration", o.Duration())
	}))

	agent, err := natpeer.New(opts...)
	if err != nil {
		return err
	}
	if nat.set {
		if err := agent.SetNATPolicy(nat.value); err != nil {
			return err
		}
	}

	logger.Info("启动设备代理", "version", natpeer.Version)
	if err := agent.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	if err := agent.WaitRegistered(ctx); err != nil {
		return fmt.Errorf("wait registered: %w", err)
	}
	fmt.Printf("设备已注册: %s\n", agent.Device().Identity)

	for _, s := range services {
		svc, err := agent.AddService(ctx, s.name, s.port)
		if err != nil {
			return fmt.Errorf("add service %s: %w", s.name, err)
		}
		fmt.Printf("已暴露服务 %s (remote id %s)\n", svc, svc.RemoteID)
	}

	fmt.Println("等待连接请求，按 Ctrl+C 退出")
	<-ctx.Done()
	fmt.Println("\n正在关闭...")
	return nil
}
