package types

// Device 设备注册状态
//
// Identity 由目录服务在首次注册成功时分配，跨重启持久化。
// 仅当 RegisteredWithDirectory 为 true 时 Identity 才可用于注册服务。
type Device struct {
	// Identity 目录服务分配的设备 ID
	Identity string `json:"identity"`

	// RegisteredWithDirectory 目录服务是否已确认注册
	RegisteredWithDirectory bool `json:"registered_with_directory"`

	// RegisteredWithPush 是否已持有本地推送身份
	RegisteredWithPush bool `json:"registered_with_push"`
}

// CanRegisterServices 是否可以用该身份注册服务
func (d Device) CanRegisterServices() bool {
	return d.RegisteredWithDirectory && d.Identity != ""
}
