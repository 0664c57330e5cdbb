// Package main 提供 natpeer 服务端
//
// 同时运行目录 REST、推送中心与会合控制通道：
//
//	natpeer-server -api :8000 -control :8001 -data-dir ./server-data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dep2p/go-natpeer"
	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/server"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
)

var logger = log.Logger("cmd/natpeer-server")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	defaults := config.DefaultServerConfig()
	envLevel, envFormat := log.FromEnv()

	configFile := flag.String("config", "", "配置文件路径（JSON，读取 server 段）")
	apiListen := flag.String("api", "", "目录与推送监听地址（默认 "+defaults.APIListen+"）")
	controlListen := flag.String("control", "", "会合控制通道监听地址（默认 "+defaults.ControlListen+"）")
	dataDir := flag.String("data-dir", "", "目录数据库目录（默认 "+defaults.DataDir+"）")
	logLevel := flag.String("log-level", envLevel.String(), "日志级别 (debug/info/warn/error)")
	logJSON := flag.Bool("log-json", envFormat == log.FormatJSON, "以 JSON 格式输出日志")
	showVersion := flag.Bool("version", false, "显示版本信息")
	flag.Parse()

	if *showVersion {
		fmt.Println(natpeer.VersionInfo())
		return nil
	}

	level, ok := log.ParseLevel(*logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", *logLevel)
	}
	format := log.FormatText
	if *logJSON {
		format = log.FormatJSON
	}
	log.Configure(os.Stderr, format, level)

	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadFile(*configFile); err != nil {
			return err
		}
	}
	scfg := cfg.Server
	if *apiListen != "" {
		scfg.APIListen = *apiListen
	}
	if *controlListen != "" {
		scfg.ControlListen = *controlListen
	}
	if *dataDir != "" {
		scfg.DataDir = *dataDir
	}

	srv, err := server.New(scfg)
	if err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("启动 natpeer 服务端", "version", natpeer.Version,
		"api", scfg.APIListen, "control", scfg.ControlListen, "data_dir", scfg.DataDir)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("服务端已关闭")
	return nil
}
