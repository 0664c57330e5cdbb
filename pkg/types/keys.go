package types

// IdentityStore 键名
const (
	// KeyDeviceID 目录服务分配的设备 ID
	KeyDeviceID = "_id"

	// KeyNATStatus NAT 策略（"true"/"false"，缺失表示未配置）
	KeyNATStatus = "NAT_STATUS"

	// KeyRegisteredOnServer 目录服务是否已确认当前推送身份
	KeyRegisteredOnServer = "registered_on_server"

	// KeyPushToken 本地推送身份
	KeyPushToken = "gcm"
)
