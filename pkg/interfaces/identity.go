package interfaces

// IdentityStore 设备设置存储
//
// 保存目录服务分配的设备 ID、NAT 策略以及推送身份确认标记。
// 键名见 types.KeyDeviceID 等常量。
type IdentityStore interface {
	// Get 读取键值，键不存在时 ok 为 false
	Get(key string) (value string, ok bool, err error)

	// Set 写入键值
	Set(key, value string) error

	// Delete 删除键，键不存在时不报错
	Delete(key string) error
}
