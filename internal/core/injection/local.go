package injection

import (
	"fmt"

	"github.com/dep2p/go-natpeer/config"
	"github.com/dep2p/go-natpeer/internal/util/addrutil"
)

// LocalAddrFunc 返回注入时使用的本地地址与接口名
type LocalAddrFunc func() (addr string, iface string, err error)

// NewLocalAddrFunc 按配置创建本地地址解析函数
//
// 配置了 LocalAddress 时直接使用，否则每次调用都重新读取接口地址，
// 接口地址在运行期间可能变化。
func NewLocalAddrFunc(cfg config.InjectionConfig) LocalAddrFunc {
	iface := cfg.Interface
	if cfg.LocalAddress != "" {
		addr := cfg.LocalAddress
		return func() (string, string, error) { return addr, iface, nil }
	}
	return func() (string, string, error) {
		ip, err := addrutil.InterfaceIPv4(iface)
		if err != nil {
			return "", iface, fmt.Errorf("resolve local address: %w", err)
		}
		return ip.String(), iface, nil
	}
}
