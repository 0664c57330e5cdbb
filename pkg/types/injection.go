package types

import "fmt"

// InjectionParams 注入原语的输入
type InjectionParams struct {
	LocalAddress  string
	LocalPort     uint16
	Interface     string
	RemoteAddress string
	RemotePort    uint16
	InitialSeq    uint32
	Timestamp     uint32
	BehindNAT     bool
}

// String 返回便于日志输出的描述
func (p InjectionParams) String() string {
	return fmt.Sprintf("%s:%d(%s) <- %s:%d seq=%d ts=%d nat=%t",
		p.LocalAddress, p.LocalPort, p.Interface,
		p.RemoteAddress, p.RemotePort, p.InitialSeq, p.Timestamp, p.BehindNAT)
}
