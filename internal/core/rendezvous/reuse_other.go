//go:build !unix

package rendezvous

import "syscall"

// reuseControl 非 unix 平台不设置地址复用
func reuseControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
