package addrutil

import (
	"errors"
	"fmt"
	"net"

	"github.com/wlynxg/anet"
)

// ErrNoAddress 接口上没有可用地址
var ErrNoAddress = errors.New("no usable address on interface")

// ErrInterfaceNotFound 接口不存在
var ErrInterfaceNotFound = errors.New("interface not found")

// InterfaceIPv4 返回指定接口的 IPv4 地址
//
// 接口有多个 IPv4 地址时取最后一个。通过 anet 枚举接口，
// 在 Android 上 net.Interfaces 因 netlink 权限受限时仍可用。
func InterfaceIPv4(name string) (net.IP, error) {
	ifaces, err := anet.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	for i := range ifaces {
		if ifaces[i].Name != name {
			continue
		}
		addrs, err := anet.InterfaceAddrsByInterface(&ifaces[i])
		if err != nil {
			return nil, fmt.Errorf("interface %s addrs: %w", name, err)
		}
		ip := lastIPv4(addrs)
		if ip == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoAddress, name)
		}
		return ip, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
}

// lastIPv4 返回地址列表中最后一个 IPv4 地址
func lastIPv4(addrs []net.Addr) net.IP {
	var found net.IP
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if v4 := ip.To4(); v4 != nil {
			found = v4
		}
	}
	return found
}
