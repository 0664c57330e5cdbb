// Package identity 实现 IdentityStore
//
// 设备设置保存在存储引擎的 s/ 前缀下：
//
//	s/_id                   目录服务分配的设备 ID
//	s/NAT_STATUS            "true" / "false"，缺失表示未配置
//	s/registered_on_server  目录服务已确认当前推送身份
//	s/gcm                   本地推送身份（websocket 通道使用）
package identity
