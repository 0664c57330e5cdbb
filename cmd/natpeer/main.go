// Package main 提供 natpeer 设备侧命令行
//
// 子命令：
//
//	natpeer run        运行设备代理并暴露本地服务
//	natpeer request    以请求方身份发起一次会合交换
//	natpeer nat-probe  用 STUN 探测是否位于 NAT 之后
//	natpeer version    显示版本信息
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dep2p/go-natpeer"
	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
)

var logger = log.Logger("cmd/natpeer")

// commonFlags 各子命令共用的参数
type commonFlags struct {
	configFile string
	logLevel   string
	logJSON    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	level, format := log.FromEnv()
	fs.StringVar(&c.configFile, "config", "", "配置文件路径（JSON）")
	fs.StringVar(&c.logLevel, "log-level", level.String(), "日志级别 (debug/info/warn/error)")
	fs.BoolVar(&c.logJSON, "log-json", format == log.FormatJSON, "以 JSON 格式输出日志")
}

// setup 配置日志并加载配置文件
func (c *commonFlags) setup() (*config.Config, error) {
	level, ok := log.ParseLevel(c.logLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", c.logLevel)
	}
	format := log.FormatText
	if c.logJSON {
		format = log.FormatJSON
	}
	log.Configure(os.Stderr, format, level)

	if c.configFile == "" {
		return config.NewConfig(), nil
	}
	return config.LoadFile(c.configFile)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return flag.ErrHelp
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "run":
		return runAgent(ctx, args[1:])
	case "request":
		return runRequest(ctx, args[1:])
	case "nat-probe":
		return runProbe(ctx, args[1:])
	case "version":
		fmt.Println(natpeer.VersionInfo())
		return nil
	case "-h", "-help", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `用法: natpeer <command> [flags]

命令:
  run        运行设备代理并暴露本地服务
  request    以请求方身份发起一次会合交换
  nat-probe  用 STUN 探测是否位于 NAT 之后
  version    显示版本信息

使用 "natpeer <command> -h" 查看各命令参数。`)
}
