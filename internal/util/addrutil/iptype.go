// Package addrutil 提供地址解析与网络接口工具
package addrutil

import (
	"net"
	"strconv"
)

// ============================================================================
//                              IP 类型判断工具
// ============================================================================

// ExtractIP 从地址字符串中提取 IP 地址
//
// 支持格式：
//   - host:port: 1.2.3.4:4001
//   - [ipv6]:port: [::1]:4001
//   - 纯 IP: 1.2.3.4 / ::1
//
// 主机名无法直接得到 IP，返回 nil。
func ExtractIP(addr string) net.IP {
	if addr == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.ParseIP(addr)
	}
	return net.ParseIP(host)
}

// IsLoopbackAddr 判断是否是回环地址
func IsLoopbackAddr(addr string) bool {
	ip := ExtractIP(addr)
	return ip != nil && ip.IsLoopback()
}

// IsPrivateAddr 判断是否是私网地址
//
// 私网地址范围：
//   - 10.0.0.0/8
//   - 172.16.0.0/12
//   - 192.168.0.0/16
//   - 100.64.0.0/10 (运营商级 NAT)
//   - fc00::/7 (IPv6 ULA)
//   - fe80::/10 (IPv6 链路本地)
func IsPrivateAddr(addr string) bool {
	ip := ExtractIP(addr)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || isSharedAddress(ip)
}

// IsPublicAddr 判断是否是公网地址
//
// 公网地址：非回环、非私网、非链路本地的有效单播地址
func IsPublicAddr(addr string) bool {
	ip := ExtractIP(addr)
	if ip == nil {
		return false
	}
	return ip.IsGlobalUnicast() && !ip.IsPrivate() && !ip.IsLoopback() && !isSharedAddress(ip)
}

var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

func isSharedAddress(ip net.IP) bool {
	return sharedAddressSpace.Contains(ip)
}

// AddrType 返回地址类型描述
//
// 返回值：
//   - "loopback" - 回环地址
//   - "private" - 私网地址
//   - "public" - 公网地址
//   - "unknown" - 无法判断
func AddrType(addr string) string {
	switch {
	case IsLoopbackAddr(addr):
		return "loopback"
	case IsPrivateAddr(addr):
		return "private"
	case IsPublicAddr(addr):
		return "public"
	default:
		return "unknown"
	}
}

// SplitHostPort 拆分 host:port 并校验端口范围
func SplitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, &net.AddrError{Err: "invalid port", Addr: addr}
	}
	return host, uint16(port), nil
}
