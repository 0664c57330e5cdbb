package injection

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/pkg/lib/log"
	"github.com/dep2p/go-natpeer/pkg/types"
)

var logger = log.Logger("core/injection")

// Commander 执行外部命令
type Commander interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommander 基于 os/exec 的 Commander
type ExecCommander struct{}

// CombinedOutput 执行命令并返回合并输出
func (ExecCommander) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExecInjector 调用外部注入程序
//
// 命令行为：
//
//	[prefix...] <command> --response -fS -D <local> -Dp <localPort>
//	    -S <remote> -Sp <remotePort> -seq <isn> -tv <ts> -if <iface> [--nat]
type ExecInjector struct {
	command string
	prefix  []string
	cmd     Commander
}

// NewExecInjector 创建 ExecInjector
func NewExecInjector(cfg config.InjectionConfig) *ExecInjector {
	return NewExecInjectorWithCommander(cfg, ExecCommander{})
}

// NewExecInjectorWithCommander 使用指定 Commander 创建（测试用）
func NewExecInjectorWithCommander(cfg config.InjectionConfig, cmd Commander) *ExecInjector {
	return &ExecInjector{
		command: cfg.Command,
		prefix:  append([]string(nil), cfg.Prefix...),
		cmd:     cmd,
	}
}

// Args 构造注入程序参数
func Args(p types.InjectionParams) []string {
	args := []string{
		"--response", "-fS",
		"-D", p.LocalAddress,
		"-Dp", strconv.Itoa(int(p.LocalPort)),
		"-S", p.RemoteAddress,
		"-Sp", strconv.Itoa(int(p.RemotePort)),
		"-seq", strconv.FormatUint(uint64(p.InitialSeq), 10),
		"-tv", strconv.FormatUint(uint64(p.Timestamp), 10),
		"-if", p.Interface,
	}
	if p.BehindNAT {
		args = append(args, "--nat")
	}
	return args
}

// Inject 执行注入程序
func (e *ExecInjector) Inject(ctx context.Context, p types.InjectionParams) error {
	argv := append(append([]string(nil), e.prefix...), e.command)
	argv = append(argv, Args(p)...)

	logger.Info("执行注入", "cmd", strings.Join(argv, " "))

	out, err := e.cmd.CombinedOutput(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("injection %s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	if len(out) > 0 {
		logger.Debug("注入程序输出", "output", strings.TrimSpace(string(out)))
	}
	return nil
}
