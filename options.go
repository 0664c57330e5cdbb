package natpeer

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"go.uber.org/fx"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/core/coordinator"
	pkgif "github.com/dep2p/go-natpeer/pkg/interfaces"
	"github.com/dep2p/go-natpeer/pkg/types"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config

	// 组件替换
	identity     pkgif.IdentityStore
	directory    pkgif.DirectoryClient
	rendezvous   pkgif.RendezvousClient
	injector     pkgif.InjectionPort
	notification pkgif.NotificationChannel

	onRequestDone coordinator.RequestDoneFunc

	// 用户扩展
	userFxOptions []fx.Option
}

func newOptions() *options {
	return &options{config: config.NewConfig()}
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置选项
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置
//
// 替换当前全部配置，应放在其他配置选项之前。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config cannot be nil")
		}
		c := *cfg
		o.config = &c
		return nil
	}
}

// WithDirectoryURL 设置目录服务基础地址
//
// 示例：http://natpeer.example.org:8000/api
func WithDirectoryURL(baseURL string) Option {
	return func(o *options) error {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid directory url %q", baseURL)
		}
		o.config.Directory.BaseURL = baseURL
		return nil
	}
}

// WithRendezvousAddr 设置会合服务器控制端口 host:port
func WithRendezvousAddr(addr string) Option {
	return func(o *options) error {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid rendezvous addr %q: %w", addr, err)
		}
		o.config.Rendezvous.Addr = addr
		return nil
	}
}

// WithPushURL 使用 websocket 推送通道并设置推送地址
//
// 示例：ws://natpeer.example.org:8000/push
func WithPushURL(pushURL string) Option {
	return func(o *options) error {
		u, err := url.Parse(pushURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("invalid push url %q", pushURL)
		}
		o.config.Notification.Mode = config.NotificationWebSocket
		o.config.Notification.PushURL = pushURL
		return nil
	}
}

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("data dir cannot be empty")
		}
		o.config.Storage.DataDir = dir
		o.config.Storage.InMemory = false
		return nil
	}
}

// WithInMemoryStorage 不落盘存储（测试用）
func WithInMemoryStorage() Option {
	return func(o *options) error {
		o.config.Storage.InMemory = true
		return nil
	}
}

// WithInterface 设置注入使用的网络接口
func WithInterface(name string) Option {
	return func(o *options) error {
		if name == "" {
			return errors.New("interface cannot be empty")
		}
		o.config.Injection.Interface = name
		return nil
	}
}

// WithLocalAddress 固定注入使用的本地地址，不再从接口读取
func WithLocalAddress(addr string) Option {
	return func(o *options) error {
		if net.ParseIP(addr) == nil {
			return fmt.Errorf("invalid local address %q", addr)
		}
		o.config.Injection.LocalAddress = addr
		return nil
	}
}

// WithDryRun 只记录注入参数，不执行注入命令
func WithDryRun() Option {
	return func(o *options) error {
		o.config.Injection.Mode = config.InjectionLog
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件替换
// ════════════════════════════════════════════════════════════════════════════

// WithIdentityStore 使用自定义 IdentityStore
func WithIdentityStore(s pkgif.IdentityStore) Option {
	return func(o *options) error {
		if s == nil {
			return errors.New("identity store cannot be nil")
		}
		o.identity = s
		return nil
	}
}

// WithDirectoryClient 使用自定义目录客户端
func WithDirectoryClient(c pkgif.DirectoryClient) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("directory client cannot be nil")
		}
		o.directory = c
		return nil
	}
}

// WithRendezvousClient 使用自定义会合客户端
func WithRendezvousClient(c pkgif.RendezvousClient) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("rendezvous client cannot be nil")
		}
		o.rendezvous = c
		return nil
	}
}

// WithInjector 使用自定义注入原语
func WithInjector(p pkgif.InjectionPort) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("injector cannot be nil")
		}
		o.injector = p
		return nil
	}
}

// WithNotificationChannel 使用自定义推送通道
//
// 通道由调用方负责关闭。
func WithNotificationChannel(ch pkgif.NotificationChannel) Option {
	return func(o *options) error {
		if ch == nil {
			return errors.New("notification channel cannot be nil")
		}
		o.notification = ch
		return nil
	}
}

// WithOnRequestDone 设置连接请求完成回调
func WithOnRequestDone(fn func(types.RequestOutcome)) Option {
	return func(o *options) error {
		o.onRequestDone = fn
		return nil
	}
}

// WithFxOption 追加自定义 Fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}
