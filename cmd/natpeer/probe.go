package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dep2p/go-natpeer/internal/core/identity"
	"github.com/dep2p/go-natpeer/internal/core/nat/stun"
	"github.com/dep2p/go-natpeer/internal/core/storage"
)

// runProbe 用 STUN 探测映射地址，-apply 时保存建议的 NAT 策略
func runProbe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("nat-probe", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)

	apply := fs.Bool("apply", false, "把探测结果保存为 NAT 策略")
	dataDir := fs.String("data-dir", "", "数据目录（-apply 时使用）")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	report, err := stun.NewClient(cfg.NAT).Probe(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stun server: %s\n", report.Server)
	fmt.Printf("local:       %s\n", report.LocalAddr)
	fmt.Printf("mapped:      %s\n", report.MappedAddr)
	fmt.Printf("behind nat:  %t\n", report.BehindNAT)

	if !*apply {
		return nil
	}

	eng, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	policy := report.Suggested()
	if err := identity.SetNatPolicy(identity.NewStore(eng), policy); err != nil {
		return err
	}
	fmt.Printf("已保存 NAT 策略: %s\n", policy)
	return nil
}
